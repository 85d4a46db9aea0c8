package physgun

import (
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/trace"
)

// grabTags теги объектов, которые можно захватить
var grabTags = []string{scene.TagSolid, scene.TagPlayer, scene.TagDebris, scene.TagNoCollide}

// TryResolveGrab ищет захватываемое тело на луче прицеливания.
// Чистый запрос: при неудаче возвращает false, состояние не меняется.
func TryResolveGrab(tracer trace.Tracer, ray trace.Ray, maxDistance float64, ignore *scene.GameObject) (bool, trace.Result) {
	tr := tracer.Trace(trace.Query{
		Ray:             ray,
		MaxDistance:     maxDistance,
		UseHitboxes:     true,
		AnyTags:         grabTags,
		IgnoreHierarchy: ignore,
	})

	valid := tr.Hit &&
		tr.Object.IsValid() &&
		tr.Object.Physics != nil &&
		tr.Component != trace.ComponentMapCollider &&
		!tr.StartedSolid &&
		!tr.Tags.Has(scene.TagGrabbed)

	return valid, tr
}
