package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// AdapterConstructor - функция-конструктор адаптера
// Возвращает новый экземпляр адаптера (еще не подключенный к БД)
type AdapterConstructor func() Adapter

// Factory - реестр адаптеров по типу СУБД
type Factory struct {
	registry map[string]AdapterConstructor
	mu       sync.RWMutex
}

// NewFactory создает новую фабрику адаптеров
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[string]AdapterConstructor),
	}
}

// Register регистрирует конструктор адаптера для типа СУБД
// Тип совпадает с dsn.Target.Driver(): схема "mysql+pymysql" дает "mysql"
func (f *Factory) Register(dbType string, constructor AdapterConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[dbType] = constructor
}

// Unregister удаляет конструктор адаптера
func (f *Factory) Unregister(dbType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registry, dbType)
}

// IsRegistered проверяет, зарегистрирован ли адаптер для данного типа БД
func (f *Factory) IsRegistered(dbType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.registry[dbType]
	return ok
}

// GetRegisteredTypes возвращает отсортированный список зарегистрированных типов
func (f *Factory) GetRegisteredTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.registry))
	for dbType := range f.registry {
		types = append(types, dbType)
	}
	sort.Strings(types)
	return types
}

// Create создает адаптер по схеме URI и подключает его
func (f *Factory) Create(ctx context.Context, cfg Config) (Adapter, error) {
	dbType := cfg.Target.Driver()

	f.mu.RLock()
	constructor, ok := f.registry[dbType]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database type: %s (available types: %v)",
			dbType, f.GetRegisteredTypes())
	}

	adapter := constructor()
	if err := adapter.Connect(ctx, cfg.WithDefaults()); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Target, err)
	}

	return adapter, nil
}

// ========== Global Factory ==========

var globalFactory = NewFactory()

// Register регистрирует адаптер в глобальной фабрике
// Вызывается из init() пакета адаптера:
//
//	func init() {
//	    adapters.Register("mysql", func() adapters.Adapter {
//	        return &Adapter{}
//	    })
//	}
func Register(dbType string, constructor AdapterConstructor) {
	globalFactory.Register(dbType, constructor)
}

// Unregister удаляет адаптер из глобальной фабрики
func Unregister(dbType string) {
	globalFactory.Unregister(dbType)
}

// IsRegistered проверяет регистрацию в глобальной фабрике
func IsRegistered(dbType string) bool {
	return globalFactory.IsRegistered(dbType)
}

// GetRegisteredTypes возвращает типы из глобальной фабрики
func GetRegisteredTypes() []string {
	return globalFactory.GetRegisteredTypes()
}

// New создает и подключает адаптер через глобальную фабрику
//
//	target, _ := dsn.Parse("mysql+pymysql://root:pw@localhost:3306/test")
//	adapter, err := adapters.New(ctx, adapters.Config{Target: target})
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close(ctx)
func New(ctx context.Context, cfg Config) (Adapter, error) {
	return globalFactory.Create(ctx, cfg)
}
