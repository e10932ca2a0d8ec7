package web

import (
	"context"
	"crypto/tls"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"raffle-panel/config"
	"raffle-panel/logger"
	"raffle-panel/util/common"
	"raffle-panel/web/controller"
	"raffle-panel/web/hub"
	"raffle-panel/web/job"
	"raffle-panel/web/locale"
	"raffle-panel/web/middleware"
	"raffle-panel/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/robfig/cron/v3"
)

//go:embed assets/*
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index  *controller.IndexController
	api    *controller.APIController
	server *controller.ServerController
	ws     *controller.WSController

	raffleService *service.RaffleService
	hub           *hub.Hub

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(raffleService *service.RaffleService) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		raffleService: raffleService,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		b, err := htmlFS.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(path, "html/")
		_, err = t.New(name).Parse(string(b))
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// initHub wires client events to engine operations. Only the commands of
// the configured policy get handlers; anything else answers an error frame
// to the sender.
func (s *Server) initHub() *hub.Hub {
	h := hub.New(s.raffleService.GetSnapshot)

	h.Handle("next", func(_ json.RawMessage) (*service.Snapshot, error) {
		return s.raffleService.Next()
	})
	h.Handle("previous", func(_ json.RawMessage) (*service.Snapshot, error) {
		return s.raffleService.Prev()
	})
	h.Handle("reset", func(_ json.RawMessage) (*service.Snapshot, error) {
		return s.raffleService.Reset()
	})

	switch s.raffleService.Policy() {
	case config.PolicyPool:
		h.Handle("raffle", func(_ json.RawMessage) (*service.Snapshot, error) {
			return s.raffleService.Draw()
		})
	case config.PolicyAdhoc:
		h.Handle("record-winner", func(data json.RawMessage) (*service.Snapshot, error) {
			var req struct {
				ItemName   string `json:"itemName"`
				WinnerName string `json:"winnerName"`
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, err
			}
			return s.raffleService.RecordWinner(req.ItemName, req.WinnerName)
		})
		h.Handle("update-winner", func(data json.RawMessage) (*service.Snapshot, error) {
			var req struct {
				ItemId     int    `json:"itemId"`
				ItemName   string `json:"itemName"`
				WinnerName string `json:"winnerName"`
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, err
			}
			return s.raffleService.UpdateWinner(req.ItemId, req.ItemName, req.WinnerName)
		})
	}

	return h
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	basePath := config.GetBasePath()
	assetsBasePath := basePath + "assets/"

	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{basePath + "ws"})))
	engine.Use(middleware.Cors(config.GetAllowedOrigins()))
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})
	engine.Use(func(c *gin.Context) {
		uri := c.Request.RequestURI
		if strings.HasPrefix(uri, assetsBasePath) {
			c.Header("Cache-Control", "max-age=31536000")
		}
	})

	err := locale.InitLocalizer(i18nFS)
	if err != nil {
		return nil, err
	}

	engine.FuncMap["i18n"] = func(key string, params ...string) string {
		return locale.I18n(key, params...)
	}
	engine.Use(locale.LocalizerMiddleware())

	if config.IsDebug() {
		// for development
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS(basePath+"assets", http.FS(os.DirFS("web/assets")))
	} else {
		// for production
		t, err := s.getHtmlTemplate(engine.FuncMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(t)
		sub, err := fs.Sub(assetsFS, "assets")
		if err != nil {
			return nil, err
		}
		engine.StaticFS(basePath+"assets", http.FS(sub))
	}

	g := engine.Group(basePath)

	s.hub = s.initHub()
	s.index = controller.NewIndexController(g)
	s.api = controller.NewAPIController(g)
	s.server = controller.NewServerController(g, s.hub.Connected)
	s.ws = controller.NewWSController(g, s.hub)

	return engine, nil
}

func (s *Server) startTask() {
	// Keep the database file current on disk during long events.
	s.cron.AddJob("@every 10m", job.NewCheckpointJob())
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	certFile := config.GetCertFile()
	keyFile := config.GetKeyFile()
	listen := config.GetListen()
	port := config.GetPort()
	listenAddr := net.JoinHostPort(listen, strconv.Itoa(port))

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			logger.Error("error loading certificates:", err)
			listener.Close()
			return err
		}
		c := &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
		listener = tls.NewListener(listener, c)
		logger.Info("web server running HTTPS on", listener.Addr())
	} else {
		logger.Info("web server running HTTP on", listener.Addr())
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler: engine,
	}

	go func() {
		s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1 error
	var err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

func (s *Server) GetCtx() context.Context {
	return s.ctx
}

func (s *Server) GetCron() *cron.Cron {
	return s.cron
}
