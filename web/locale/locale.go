package locale

import (
	"embed"
	"io/fs"
	"strings"

	"raffle-panel/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle       *i18n.Bundle
	defaultLocalizer *i18n.Localizer
)

const defaultLang = "en-US"

func InitLocalizer(i18nFS embed.FS) error {
	i18nBundle = i18n.NewBundle(language.MustParse(defaultLang))
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(i18nFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}
		_, err = i18nBundle.LoadMessageFileFS(i18nFS, path)
		return err
	})
	if err != nil {
		return err
	}

	defaultLocalizer = i18n.NewLocalizer(i18nBundle, defaultLang)
	return nil
}

// LocalizerMiddleware picks a localizer per request from the lang query
// parameter, cookie, or Accept-Language header, in that order.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		langs := []string{}
		if lang := c.Query("lang"); lang != "" {
			langs = append(langs, lang)
		}
		if lang, err := c.Cookie("lang"); err == nil && lang != "" {
			langs = append(langs, lang)
		}
		langs = append(langs, c.GetHeader("Accept-Language"), defaultLang)

		c.Set("localizer", i18n.NewLocalizer(i18nBundle, langs...))
		c.Next()
	}
}

// I18n translates key with the default localizer. Params come in pairs
// formatted "Name==Value" and fill the message template.
func I18n(key string, params ...string) string {
	return localize(defaultLocalizer, key, params...)
}

// I18nWeb translates key with the localizer chosen for this request.
func I18nWeb(c *gin.Context, key string, params ...string) string {
	value, ok := c.Get("localizer")
	if !ok {
		return I18n(key, params...)
	}
	localizer, ok := value.(*i18n.Localizer)
	if !ok {
		return I18n(key, params...)
	}
	return localize(localizer, key, params...)
}

func localize(localizer *i18n.Localizer, key string, params ...string) string {
	templateData := map[string]any{}
	for _, param := range params {
		pair := strings.SplitN(param, "==", 2)
		if len(pair) == 2 {
			templateData[pair[0]] = pair[1]
		}
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Debugf("i18n message %q not found: %v", key, err)
		return key
	}
	return msg
}
