package main

import (
	"github.com/LJTian/NewsDigest/internal/agent"
	"github.com/LJTian/NewsDigest/internal/api"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// 只读 API：查看每日闸门状态与下一封摘要的预览，不会发送邮件
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logging.Setup(cfg.LogLevel, nil)
	log.WithFields(log.Fields{
		"feeds": len(cfg.Pipeline.Feeds),
		"store": cfg.StoreBackend,
		"tz":    cfg.Timezone,
	}).Debug("config loaded")

	rt, err := agent.Build(cfg)
	if err != nil {
		log.Fatalf("init runtime failed: %v", err)
	}
	defer func() { _ = rt.Close() }()

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(rt.Gate, rt.State)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Infof("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
