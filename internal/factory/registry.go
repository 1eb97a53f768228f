package factory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xkmm/presale/internal/sale"
)

// Registry 已创建销售实例的集合
// 只增不减，支持存在性查询与按序号枚举
type Registry struct {
	mu        sync.RWMutex
	ids       []common.Address
	instances map[common.Address]*sale.Instance
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[common.Address]*sale.Instance),
	}
}

// add 登记新实例，重复登记视为硬错误
func (r *Registry) add(id common.Address, inst *sale.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[id]; ok {
		return fmt.Errorf("%w: sale %s already registered", sale.ErrStateConflict, id.Hex())
	}
	r.instances[id] = inst
	r.ids = append(r.ids, id)
	return nil
}

// remove 回滚未完成的登记（仅创建流程内部使用）
func (r *Registry) remove(id common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[id]; !ok {
		return
	}
	delete(r.instances, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
}

// IsRegistered 是否为本工厂创建的实例
func (r *Registry) IsRegistered(id common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instances[id]
	return ok
}

// Count 实例总数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// EntryAt 按登记顺序取第index个实例标识
func (r *Registry) EntryAt(index int) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.ids) {
		return common.Address{}, fmt.Errorf("%w: index %d out of range [0, %d)", sale.ErrValidation, index, len(r.ids))
	}
	return r.ids[index], nil
}

// Get 按标识取实例
func (r *Registry) Get(id common.Address) (*sale.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

// All 当前全部实例标识快照
func (r *Registry) All() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, len(r.ids))
	copy(out, r.ids)
	return out
}
