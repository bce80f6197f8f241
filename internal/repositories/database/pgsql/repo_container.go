package pgsql

import (
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories over one pool.
// cache may be nil; services then compute exposure on every request.
func NewRepositoryProvider(dbPool *pgxpool.Pool, cache portsrepo.ExposureCache) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:           &BaseRepository{Pool: dbPool},
		AccountRepo:         newPgxAccountRepository(dbPool),
		TransactionRepo:     newPgxTransactionRepository(dbPool),
		BookingRepo:         newPgxBookingRepository(dbPool),
		SupplierPaymentRepo: newPgxSupplierPaymentRepository(dbPool),
		ExposureCache:       cache,
	}
}

var _ portsrepo.TransactionManager = (*BaseRepository)(nil)
