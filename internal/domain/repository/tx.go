package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción (o snapshot de lectura).
// Convención de todos los puertos: los GetBy* devuelven (nil, nil) cuando el registro no existe;
// el caso de uso decide si eso es un NotFoundError.
type Repos struct {
	Categories     CategoryRepository
	Suppliers      SupplierRepository
	Products       ProductRepository
	Batches        BatchRepository
	Documents      DocumentRepository
	CorrectionLogs CorrectionLogRepository
	Sequences      SequenceRepository
	Users          UserRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se revierte todo; si no, se hace Commit. Garantiza atomicidad al motor.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	// ReadOnly abre una instantánea consistente de solo lectura (una por llamada).
	ReadOnly(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
