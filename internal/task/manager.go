package task

import (
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/config"
	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/logger"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	factory   *factory.Factory
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, f *factory.Factory, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		factory:   f,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, f *factory.Factory, cfg *config.Config) *Manager {
	manager := NewManager(db, f, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.RegisterSaleStatusJob()
}

// RegisterSaleStatusJob 注册销售状态同步任务
func (m *Manager) RegisterSaleStatusJob() {
	job := NewSaleStatusJob(m.db, m.factory, m.config)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
