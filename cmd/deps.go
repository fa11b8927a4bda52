package cmd

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributePostgres "github.com/fylein/fyle-integrations-imports/internal/attribute/postgres"
	"github.com/fylein/fyle-integrations-imports/internal/cache"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	"github.com/fylein/fyle-integrations-imports/internal/core/events"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
	"github.com/fylein/fyle-integrations-imports/internal/importlog"
	importlogPostgres "github.com/fylein/fyle-integrations-imports/internal/importlog/postgres"
	"github.com/fylein/fyle-integrations-imports/internal/mapping"
	mappingPostgres "github.com/fylein/fyle-integrations-imports/internal/mapping/postgres"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
	"github.com/fylein/fyle-integrations-imports/internal/scheduler"
	"github.com/fylein/fyle-integrations-imports/pkg/logger"
)

// Dependencies is the shared wiring for every command: storage, cache, event
// bus and the repositories the import pipeline runs against.
type Dependencies struct {
	Config     *internal.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Cache      cache.Cache
	Attributes attribute.RepositoryAPI
	ImportLogs importlog.RepositoryAPI
	Mappings   mapping.RepositoryAPI
	EventBus   *events.EventBus
	Logger     *slog.Logger
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Address,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
		PoolSize: config.Redis.PoolSize,
	})

	return &Dependencies{
		Config:     config,
		DB:         db,
		Redis:      redisClient,
		Cache:      cache.NewRedisCache(redisClient),
		Attributes: attributePostgres.NewAttributeRepository(db),
		ImportLogs: importlogPostgres.NewImportLogRepository(db),
		Mappings:   mappingPostgres.NewMappingRepository(db),
		EventBus:   events.NewEventBus(log),
		Logger:     log,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Source), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// importerDeps assembles the per-workspace collaborator set: platform client
// and connector registry are scoped to one workspace, the rest is shared.
func (d *Dependencies) importerDeps(workspaceID int64) importer.Deps {
	return importer.Deps{
		Attributes: d.Attributes,
		ImportLogs: d.ImportLogs,
		Mappings:   d.Mappings,
		Platform:   platform.NewClient(d.Config.Platform, workspaceID, d.Attributes, d.Logger),
		Connector:  connector.NewRESTConnector(d.Config.Connector, workspaceID),
		Cache:      d.Cache,
		Events:     d.EventBus,
		Logger:     d.Logger,
	}
}

// chainBuilder resolves a workspace's configured imports into an ordered
// chain at trigger time.
func (d *Dependencies) chainBuilder() scheduler.ChainBuilder {
	return func(workspaceID int64) (*scheduler.Chain, error) {
		for _, wc := range d.Config.Import.Workspaces {
			if wc.WorkspaceID == workspaceID {
				return scheduler.BuildImportChain(workspaceID, taskSettingsFromConfig(wc), d.importerDeps(workspaceID))
			}
		}
		return scheduler.NewChain(d.Logger), nil
	}
}

func taskSettingsFromConfig(wc internal.WorkspaceImportConfig) scheduler.TaskSettings {
	settings := scheduler.TaskSettings{}

	if c := wc.Categories; c != nil {
		settings.ImportCategories = &scheduler.CategorySettings{
			DestinationField:           c.DestinationField,
			DestinationSyncMethods:     c.DestinationSyncMethods,
			IsAutoSyncEnabled:          c.IsAutoSyncEnabled,
			Is3DMapping:                c.Is3DMapping,
			ChartsOfAccounts:           c.ChartsOfAccounts,
			UseMappingTable:            c.UseMappingTable,
			PrependCodeToName:          c.PrependCodeToName,
			ImportWithoutDestinationID: c.ImportWithoutDestinationID,
		}
	}
	if t := wc.Tax; t != nil {
		settings.ImportTax = &scheduler.TaxSettings{
			DestinationField:       t.DestinationField,
			DestinationSyncMethods: t.DestinationSyncMethods,
		}
	}
	if m := wc.Merchants; m != nil {
		settings.ImportVendorsAsMerchants = &scheduler.MerchantSettings{
			DestinationField:       m.DestinationField,
			DestinationSyncMethods: m.DestinationSyncMethods,
			IsAutoSyncEnabled:      m.IsAutoSyncEnabled,
		}
	}
	for _, m := range wc.Mappings {
		settings.MappingSettings = append(settings.MappingSettings, scheduler.MappingSetting{
			SourceField:                m.SourceField,
			DestinationField:           m.DestinationField,
			DestinationSyncMethods:     m.DestinationSyncMethods,
			IsCustom:                   m.IsCustom,
			IsAutoSyncEnabled:          m.IsAutoSyncEnabled,
			PrependCodeToName:          m.PrependCodeToName,
			ImportWithoutDestinationID: m.ImportWithoutDestinationID,
			BillableDetailKey:          m.BillableDetailKey,
			SourcePlaceholder:          m.SourcePlaceholder,
		})
	}
	return settings
}
