package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickSystem интерфейс для всех игровых систем
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// GameTicker игровой цикл с фиксированной частотой тиков
type GameTicker struct {
	// Конфигурация
	targetTPS    int           // Целевая частота тиков в секунду
	tickDuration time.Duration // Длительность одного тика
	maxTickTime  time.Duration // Максимальное время на один тик

	// Состояние
	mu           sync.Mutex
	isRunning    bool
	isPaused     bool
	tickCount    uint64
	startTime    time.Time
	lastTickTime time.Time

	// Системы
	systems      []TickSystem
	systemsMutex sync.RWMutex

	// Мониторинг производительности
	perfMonitor *PerformanceMonitor

	// Управление
	ctx       context.Context
	cancel    context.CancelFunc
	pauseChan chan bool
	done      chan struct{}

	// Метрики
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	logger           *zap.Logger
	warningThreshold time.Duration
}

// PerformanceMonitor отслеживает производительность каждой системы
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow     int           // Количество последних тиков для усреднения
	warningThreshold  time.Duration // Порог предупреждения для системы
	criticalThreshold time.Duration // Критический порог
}

// SystemMetrics метрики производительности системы
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewGameTicker создает игровой тикер
func NewGameTicker(targetTPS int, logger *zap.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tickDuration := time.Second / time.Duration(targetTPS)

	ctx, cancel := context.WithCancel(context.Background())

	return &GameTicker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxTickTime:      tickDuration * 2,
		systems:          make([]TickSystem, 0),
		perfMonitor:      NewPerformanceMonitor(50, tickDuration/4), // Предупреждение при 25% от тика
		ctx:              ctx,
		cancel:           cancel,
		pauseChan:        make(chan bool, 1),
		done:             make(chan struct{}),
		logger:           logger.Named("GameTicker"),
		warningThreshold: tickDuration / 2,
	}
}

// NewPerformanceMonitor создает новый монитор производительности
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

// TickDuration длительность одного тика
func (gt *GameTicker) TickDuration() time.Duration {
	return gt.tickDuration
}

// Start запускает игровой цикл
func (gt *GameTicker) Start() {
	gt.mu.Lock()
	if gt.isRunning {
		gt.mu.Unlock()
		return
	}
	gt.isRunning = true
	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime
	gt.mu.Unlock()

	gt.logger.Info("запуск игрового цикла",
		zap.Int("tps", gt.targetTPS),
		zap.Duration("tick", gt.tickDuration))

	go gt.gameLoop()
}

// Stop останавливает игровой цикл и ждет завершения текущего тика
func (gt *GameTicker) Stop() {
	gt.mu.Lock()
	if !gt.isRunning {
		gt.mu.Unlock()
		return
	}
	gt.isRunning = false
	gt.mu.Unlock()

	gt.cancel()
	<-gt.done

	gt.logger.Info("игровой цикл остановлен", zap.Uint64("ticks", gt.GetTickCount()))
}

// Pause приостанавливает или возобновляет выполнение систем
func (gt *GameTicker) Pause(pause bool) {
	gt.mu.Lock()
	gt.isPaused = pause
	gt.mu.Unlock()

	select {
	case gt.pauseChan <- pause:
	default:
	}
}

// RegisterSystem добавляет систему в игровой цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	gt.systems = append(gt.systems, system)

	// Сортируем по приоритету (меньше = выше приоритет)
	for i := len(gt.systems) - 1; i > 0; i-- {
		if gt.systems[i].GetPriority() < gt.systems[i-1].GetPriority() {
			gt.systems[i], gt.systems[i-1] = gt.systems[i-1], gt.systems[i]
		} else {
			break
		}
	}

	gt.perfMonitor.initSystemMetrics(system.GetName())

	gt.logger.Info("зарегистрирована система",
		zap.String("system", system.GetName()),
		zap.Int("priority", system.GetPriority()))
}

// gameLoop основной игровой цикл
func (gt *GameTicker) gameLoop() {
	defer close(gt.done)

	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-gt.ctx.Done():
			return

		case pause := <-gt.pauseChan:
			// Ждем команды возобновления
			for pause {
				select {
				case <-gt.ctx.Done():
					return
				case pause = <-gt.pauseChan:
				}
			}
			gt.mu.Lock()
			gt.lastTickTime = time.Now()
			gt.mu.Unlock()

		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

// executeTick выполняет один игровой тик
func (gt *GameTicker) executeTick(tickTime time.Time) {
	gt.mu.Lock()
	deltaTime := tickTime.Sub(gt.lastTickTime)
	gt.lastTickTime = tickTime
	gt.mu.Unlock()

	// Проверяем, не слишком ли большая задержка между тиками
	if deltaTime > gt.tickDuration*2 {
		gt.logger.Warn("большая задержка между тиками",
			zap.Duration("delta", deltaTime),
			zap.Duration("expected", gt.tickDuration))
		gt.mu.Lock()
		gt.skippedTicks++
		gt.mu.Unlock()
		// Не даем физике прыгнуть на большой шаг
		deltaTime = gt.maxTickTime
	}

	gt.Step(deltaTime)
}

// Step выполняет все системы один раз. Используется циклом и тестами.
func (gt *GameTicker) Step(deltaTime time.Duration) {
	tickStart := time.Now()

	gt.mu.Lock()
	gt.tickCount++
	gt.mu.Unlock()

	gt.executeAllSystems(deltaTime)

	totalTickTime := time.Since(tickStart)
	gt.updateTickMetrics(totalTickTime)
	gt.checkPerformance(totalTickTime)
}

// executeAllSystems выполняет все зарегистрированные системы
func (gt *GameTicker) executeAllSystems(deltaTime time.Duration) {
	gt.systemsMutex.RLock()
	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	gt.systemsMutex.RUnlock()

	for _, system := range systems {
		gt.executeSystem(system, deltaTime)
	}
}

// executeSystem выполняет одну систему с замером времени
func (gt *GameTicker) executeSystem(system TickSystem, deltaTime time.Duration) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Error("паника в системе", zap.String("system", systemName), zap.Any("panic", r))
			gt.perfMonitor.recordError(systemName)
		}
	}()

	err := system.Update(deltaTime)

	gt.perfMonitor.recordExecution(systemName, time.Since(systemStart))

	if err != nil {
		gt.logger.Warn("ошибка в системе", zap.String("system", systemName), zap.Error(err))
		gt.perfMonitor.recordError(systemName)
	}
}

// GetTickCount возвращает текущее количество тиков
func (gt *GameTicker) GetTickCount() uint64 {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	return gt.tickCount
}

// GetStats возвращает статистику игрового цикла
func (gt *GameTicker) GetStats() map[string]interface{} {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	gt.systemsMutex.RLock()
	systemsCount := len(gt.systems)
	gt.systemsMutex.RUnlock()

	actualTPS := 0.0
	uptime := time.Duration(0)
	if !gt.startTime.IsZero() {
		uptime = time.Since(gt.startTime)
		actualTPS = float64(gt.tickCount) / uptime.Seconds()
	}

	return map[string]interface{}{
		"target_tps":        gt.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        gt.tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"average_tick_time": gt.averageTickTime,
		"max_observed_tick": gt.maxObservedTick,
		"skipped_ticks":     gt.skippedTicks,
		"is_running":        gt.isRunning,
		"is_paused":         gt.isPaused,
		"systems_count":     systemsCount,
	}
}

// SystemsStats метрики систем
func (gt *GameTicker) SystemsStats() map[string]SystemMetrics {
	return gt.perfMonitor.Snapshot()
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++

	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	// Добавляем в скользящее окно
	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow

	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	var total time.Duration

	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}

	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}

	if limit > 0 {
		metrics.AverageTime = total / time.Duration(limit)
	}
}

// Snapshot копия метрик всех систем
func (pm *PerformanceMonitor) Snapshot() map[string]SystemMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	out := make(map[string]SystemMetrics, len(pm.systemMetrics))
	for name, m := range pm.systemMetrics {
		c := *m
		c.recentTimes = nil
		out[name] = c
	}
	return out
}

func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}

	// Простое скользящее среднее
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.maxTickTime {
		gt.logger.Warn("тик превысил максимальное время",
			zap.Duration("tick", tickTime),
			zap.Duration("max", gt.maxTickTime),
			zap.Duration("target", gt.tickDuration))
	} else if tickTime > gt.warningThreshold {
		gt.logger.Debug("медленный тик",
			zap.Duration("tick", tickTime),
			zap.Duration("target", gt.tickDuration))
	}
}
