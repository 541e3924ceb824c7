package db

import (
	"fmt"
	"net"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/shinyyama/campus-market/internal/config"
	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mysqlAddr resolves DB_HOST into a driver network and address.
func mysqlAddr(cfg *config.Config) (network, addr string) {
	host := strings.TrimSpace(cfg.DBHost)
	switch {
	// Prefer Cloud SQL unix socket when INSTANCE_CONNECTION_NAME is provided.
	case cfg.InstanceConnectionName != "":
		return "unix", "/cloudsql/" + cfg.InstanceConnectionName
	case strings.HasPrefix(host, "tcp(") && strings.HasSuffix(host, ")"):
		return "tcp", strings.TrimSuffix(strings.TrimPrefix(host, "tcp("), ")")
	case strings.HasPrefix(host, "unix(") && strings.HasSuffix(host, ")"):
		return "unix", strings.TrimSuffix(strings.TrimPrefix(host, "unix("), ")")
	case strings.HasPrefix(host, "/"):
		return "unix", host
	default:
		return "tcp", net.JoinHostPort(host, cfg.DBPort)
	}
}

func BuildDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	if cfg.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	}
	mc := mysqldriver.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net, mc.Addr = mysqlAddr(cfg)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func dialector(cfg *config.Config) gorm.Dialector {
	dsn := BuildDSN(cfg)
	if cfg.DBDriver == "postgres" {
		return postgres.Open(dsn)
	}
	return mysql.Open(dsn)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dialector(cfg), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
