package ports

import (
	"context"
	"time"
)

// ReportCache define el puerto de salida para cachear resultados de reportes.
// Cualquier adaptador (Redis, no-op) debe implementar esta interfaz; la aplicación
// solo conoce este contrato.
type ReportCache interface {
	// Get carga en dst el valor guardado en key. found=false si no existe o expiró.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate borra todas las entradas de reportes. Se llama tras cada cambio confirmado del libro.
	Invalidate(ctx context.Context) error
}

// NopCache implementación vacía: nunca encuentra nada y no guarda nada.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (NopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (NopCache) Invalidate(context.Context) error                      { return nil }
