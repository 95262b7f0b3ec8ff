package database

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/pkg/dataflow"
	"github.com/shopspring/decimal"
)

type DataSeeder struct {
	repo  domain.EmployeeRepository
	index domain.EmployeeIndex
	rnd   *rand.Rand
}

// NewDataSeeder creates a seeder. index may be nil when search is disabled.
func NewDataSeeder(repo domain.EmployeeRepository, index domain.EmployeeIndex) *DataSeeder {
	return &DataSeeder{
		repo:  repo,
		index: index,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var (
	firstNames  = []string{"Aarav", "Alice", "Bob", "Chen", "Diya", "Elena", "Farah", "Gabriel", "Hana", "Ivan", "Jun", "Kavya", "Liam", "Maya", "Noah", "Olivia"}
	lastNames   = []string{"Nguyen", "Smith", "Patel", "Garcia", "Kim", "Mueller", "Rossi", "Sato", "Silva", "Khan", "Brown", "Lopez"}
	departments = []string{"Engineering", "Finance", "HR", "IT", "Marketing", "Operations", "Sales", "Support"}
	states      = []string{"California", "Karnataka", "Maharashtra", "New York", "Texas", "Washington", "Tamil Nadu", "Florida"}
	districts   = []string{"Central", "North", "South", "East", "West", "Downtown", "Harbor", "Uptown"}
	streets     = []string{"Main St", "Oak Ave", "Park Rd", "Lake View", "Hill Top", "River Side"}
)

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of employees and insert workers for a preset
func GetPresetConfig(preset SeedPreset) (numEmployees, workers int) {
	switch preset {
	case PresetSmall:
		return 50, 2
	case PresetLarge:
		return 5000, 8
	default:
		return 500, 4
	}
}

// SeedData inserts n random employees using the given number of workers and
// mirrors them into the search index in batches.
func (ds *DataSeeder) SeedData(ctx context.Context, n, workers int) (int, error) {
	start := time.Now()
	logger.InfoLog(ctx, "Seeding %d employees with %d workers", n, workers)

	// rand.Rand is not safe for concurrent use, so inputs are generated upfront.
	inputs := make([]domain.Employee, n)
	for i := range inputs {
		inputs[i] = ds.randomEmployee(i)
	}

	var failed int32
	created := dataflow.Map(ctx, dataflow.From(ctx, inputs...), func(e domain.Employee) (domain.Employee, error) {
		if err := ds.repo.Create(ctx, &e); err != nil {
			return e, fmt.Errorf("create %s: %w", e.Email, err)
		}
		return e, nil
	},
		dataflow.WithWorkers(workers),
		dataflow.WithRetry(2, dataflow.ConstantBackoff(50*time.Millisecond)),
		dataflow.WithErrorHandler(func(err error) bool {
			atomic.AddInt32(&failed, 1)
			logger.WarnLog(ctx, "Skipping employee: %v", err)
			return true
		}),
	)

	var inserted int
	err := dataflow.ForEach(ctx, dataflow.Batch(ctx, created, 200), func(batch []domain.Employee) error {
		inserted += len(batch)
		if ds.index == nil {
			return nil
		}
		return ds.index.BulkIndex(ctx, batch)
	})
	if err != nil {
		return inserted, fmt.Errorf("failed to seed employees: %w", err)
	}

	logger.InfoLog(ctx, "Seeded %d employees (%d skipped) in %v", inserted, failed, time.Since(start))
	return inserted, nil
}

// Reindex pushes every stored employee into the search index in batches.
func (ds *DataSeeder) Reindex(ctx context.Context, batchSize int) (int, error) {
	if ds.index == nil {
		return 0, domain.ErrSearchUnavailable
	}
	all, err := ds.repo.Find(ctx, query.Spec{})
	if err != nil {
		return 0, err
	}

	var indexed int
	err = dataflow.ForEach(ctx, dataflow.Batch(ctx, dataflow.From(ctx, all...), batchSize), func(batch []domain.Employee) error {
		if err := ds.index.BulkIndex(ctx, batch); err != nil {
			return err
		}
		indexed += len(batch)
		return nil
	}, dataflow.WithRetry(3, func(attempt int) time.Duration {
		return time.Duration(attempt) * 200 * time.Millisecond
	}))
	if err != nil {
		return indexed, fmt.Errorf("failed to reindex employees: %w", err)
	}

	logger.InfoLog(ctx, "Reindexed %d employees", indexed)
	return indexed, nil
}

// ClearData deletes every employee row and its search document.
func (ds *DataSeeder) ClearData(ctx context.Context) (int, error) {
	all, err := ds.repo.Find(ctx, query.Spec{})
	if err != nil {
		return 0, err
	}
	ids := make([]int, len(all))
	for i, e := range all {
		ids[i] = e.ID
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := ds.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to clear employees: %w", err)
	}
	if ds.index != nil {
		if err := ds.index.Delete(ctx, ids...); err != nil {
			logger.WarnLog(ctx, "Failed to clear search index: %v", err)
		}
	}
	logger.InfoLog(ctx, "Cleared %d employees", n)
	return n, nil
}

func (ds *DataSeeder) randomEmployee(i int) domain.Employee {
	first := firstNames[ds.rnd.Intn(len(firstNames))]
	last := lastNames[ds.rnd.Intn(len(lastNames))]
	cents := ds.rnd.Int63n(15_000_000) + 3_000_000

	return domain.Employee{
		EmployeeName: first + " " + last,
		Email:        fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		Department:   departments[ds.rnd.Intn(len(departments))],
		Salary:       decimal.New(cents, -2),
		Address1:     fmt.Sprintf("%d %s", ds.rnd.Intn(999)+1, streets[ds.rnd.Intn(len(streets))]),
		State:        states[ds.rnd.Intn(len(states))],
		District:     districts[ds.rnd.Intn(len(districts))],
		Pincode:      fmt.Sprintf("%06d", ds.rnd.Intn(1_000_000)),
	}
}
