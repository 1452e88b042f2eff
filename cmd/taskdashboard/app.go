package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"task-dashboard/internal/bot"
	"task-dashboard/internal/config"
	"task-dashboard/internal/export"
	"task-dashboard/internal/metrics"
	"task-dashboard/internal/repository"
	"task-dashboard/internal/server"
	"task-dashboard/internal/service"
)

var openDB = repository.NewDB

// app holds the wired services shared by every subcommand.
type app struct {
	cfg         config.Config
	loc         *time.Location
	db          *gorm.DB
	subscribers *repository.SubscriberRepository
	tasks       *service.TaskService
	categories  *service.CategoryService
	stats       *service.StatsService
	reminders   *service.ReminderService
	exporter    *export.Exporter
}

// newApp opens the database and wires the services in loc.
func newApp(ctx context.Context, cfg config.Config, loc *time.Location) (*app, error) {
	db, err := openDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := repository.Seed(ctx, db, cfg.Database.Seed); err != nil {
		if closeErr := closeDB(db); closeErr != nil {
			log.Printf("close db: %v", closeErr)
		}
		return nil, fmt.Errorf("seed: %w", err)
	}

	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tasks := service.NewTaskService(taskRepo, categoryRepo, service.SystemClock(loc))
	categories := service.NewCategoryService(categoryRepo, tasks)

	return &app{
		cfg:         cfg,
		loc:         loc,
		db:          db,
		subscribers: repository.NewSubscriberRepository(db),
		tasks:       tasks,
		categories:  categories,
		stats:       service.NewStatsService(tasks, categories),
		reminders:   service.NewReminderService(tasks, categories),
		exporter:    export.NewExporter(tasks, categories),
	}, nil
}

func (a *app) server() *server.Server {
	return server.New(a.tasks, a.categories, a.stats, a.exporter, metrics.New(a.stats))
}

func (a *app) commands() *bot.Commands {
	return bot.NewCommands(a.subscribers, a.tasks, a.categories, a.stats, a.reminders)
}

func (a *app) Close() error {
	return closeDB(a.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
