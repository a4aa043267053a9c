package cmd

import (
	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/rdb"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server"
	"github.com/AbdelzaherMuhammed/hypervel/internal/task"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/shutdown"
	"github.com/spf13/cobra"
)

var cfgFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start " + conf.APP_NAME,
	PreRun: func(cmd *cobra.Command, args []string) {
		conf.PrintBanner()
		if err := conf.Load(cfgFile); err != nil {
			log.Errorf("config load error: %v", err)
		}
		log.SetLevel(conf.AppConfig.Log.Level)
	},
	Run: func(cmd *cobra.Command, args []string) {
		shutdown.Init(log.Logger)
		defer shutdown.Listen()
		if err := db.InitDB(conf.AppConfig.Database.Type, conf.AppConfig.Database.Path, conf.IsDebug()); err != nil {
			log.Errorf("database init error: %v", err)
			return
		}
		shutdown.Register(db.Close)

		if err := rdb.Init(conf.AppConfig.Redis.Addr, conf.AppConfig.Redis.Password, conf.AppConfig.Redis.DB); err != nil {
			log.Errorf("redis init error: %v", err)
			return
		}
		shutdown.Register(rdb.Close)

		op.Init(conf.AppConfig.Auth.DBConcurrency, conf.AppConfig.Vin.DBConcurrency)
		if err := op.InitCache(); err != nil {
			log.Errorf("cache init error: %v", err)
			return
		}

		async.Init(4)
		shutdown.Register(async.Close)
		shutdown.Register(op.AuditLogFlush)

		if err := server.Start(); err != nil {
			log.Errorf("server start error: %v", err)
			return
		}
		shutdown.Register(server.Close)

		task.Init()
		go task.RUN()
	},
}

func init() {
	startCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./data/config.json)")
	rootCmd.AddCommand(startCmd)
}
