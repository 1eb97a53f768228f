package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/config"
	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/logic"
	"github.com/0xkmm/presale/internal/model"
)

// SaleStatusJob 销售状态同步任务
// 周期性把引擎内每个实例的实时状态刷进销售档案
type SaleStatusJob struct {
	db        *gorm.DB
	factory   *factory.Factory
	config    *config.Config
	saleLogic *logic.SaleRecordLogic
}

// NewSaleStatusJob 创建销售状态同步任务
func NewSaleStatusJob(db *gorm.DB, f *factory.Factory, cfg *config.Config) *SaleStatusJob {
	return &SaleStatusJob{
		db:        db,
		factory:   f,
		config:    cfg,
		saleLogic: logic.NewSaleRecordLogic(db),
	}
}

// GetName 获取任务名称
func (j *SaleStatusJob) GetName() string {
	return "sale_status_sync"
}

// GetSchedule 获取调度配置
func (j *SaleStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SaleStatusJob) Execute() {
	now := time.Now().Unix()
	updated := 0

	for _, id := range j.factory.All() {
		inst, ok := j.factory.Get(id)
		if !ok {
			continue
		}

		cfg := inst.Config()
		st := inst.State()

		status := model.SaleStatusPending
		switch {
		case st.Terminated:
			status = model.SaleStatusTerminated
		case st.VestingStartTime != 0:
			status = model.SaleStatusFinalized
		case now >= st.EndTime:
			status = model.SaleStatusEnded
		case now >= cfg.StartTime:
			status = model.SaleStatusActive
		}

		err := j.saleLogic.UpdateSaleState(id.Hex(), map[string]interface{}{
			"name":               cfg.Meta.Name,
			"website":            cfg.Meta.Website,
			"cover":              cfg.Meta.Cover,
			"description":        cfg.Meta.Description,
			"hard_cap":           cfg.HardCap.String(),
			"start_price":        cfg.StartPrice.String(),
			"fee_rate":           cfg.FeeRate.String(),
			"start_time":         cfg.StartTime,
			"end_time":           st.EndTime,
			"total_sold":         st.TotalSold.String(),
			"accumulated_fees":   st.AccumulatedFees.String(),
			"vesting_start_time": st.VestingStartTime,
			"vesting_duration":   st.VestingDuration,
			"status":             status,
		})
		if err != nil {
			logger.Warn("Failed to sync sale %s: %v", id.Hex(), err)
			continue
		}
		updated++
	}

	if updated > 0 {
		logger.Debug("Sale status sync updated %d records", updated)
	}
}
