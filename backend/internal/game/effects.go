package game

import (
	"go.uber.org/zap"

	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/telemetry"
)

// LogEffects эффекты без клиента: запись в лог и телеметрию
type LogEffects struct {
	logger *zap.Logger
	events *telemetry.Recorder
}

func NewLogEffects(logger *zap.Logger, events *telemetry.Recorder) *LogEffects {
	return &LogEffects{logger: logger.Named("Effects"), events: events}
}

func (e *LogEffects) FreezeEffects(obj *scene.GameObject, bone int) {
	e.logger.Debug("эффект заморозки", zap.String("object", string(obj.ID)), zap.Int("bone", bone))

	ev := telemetry.Event{Kind: telemetry.KindFreeze, Object: string(obj.ID), Bone: bone}
	if body := obj.Body(bone); body != nil {
		ev.Position = body.Position()
	}
	e.events.Record(ev)
}
