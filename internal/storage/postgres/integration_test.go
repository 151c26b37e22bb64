//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/job"
)

var integrationDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("connect to docker: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("ping docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=jobengine_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	resource.Expire(300)

	dsn := fmt.Sprintf(
		"host=localhost user=postgres password=postgres dbname=jobengine_test port=%s sslmode=disable",
		resource.GetPort("5432/tcp"),
	)

	if err := pool.Retry(func() error {
		probe, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer probe.Close()
		return probe.Ping()
	}); err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}

	integrationDB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("open gorm: %v", err)
	}

	if err := Migrate(integrationDB, "../../../migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Printf("purge resource: %v", err)
	}
	os.Exit(code)
}

func resetJobsTable(t *testing.T) {
	t.Helper()
	require.NoError(t, integrationDB.Exec("TRUNCATE jobs").Error)
}

func TestIntegrationClaimDueLocksRows(t *testing.T) {
	resetJobsTable(t)
	repo := NewJobRepository(integrationDB)
	ctx := context.Background()
	now := time.Now().UTC()

	const total = 20
	for i := 0; i < total; i++ {
		require.NoError(t, repo.Create(ctx, makeJob(config.JobStatusPending, timePtr(now.Add(-time.Minute)))))
	}

	const workers = 4
	const perWorker = 5

	var (
		mu      sync.Mutex
		claimed = map[string]int{}
	)
	release := make(chan struct{})
	ready := sync.WaitGroup{}
	ready.Add(workers)
	done := sync.WaitGroup{}
	done.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer done.Done()
			err := repo.WithTx(ctx, func(tx job.JobRepoInterface) error {
				jobs, err := tx.ClaimDue(ctx, perWorker)
				if err != nil {
					return err
				}
				mu.Lock()
				for _, j := range jobs {
					claimed[j.ID]++
				}
				mu.Unlock()

				// hold the transaction so every worker claims concurrently
				ready.Done()
				<-release
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	ready.Wait()
	close(release)
	done.Wait()

	assert.Len(t, claimed, total)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "job %s claimed %d times", id, n)
	}
}

func TestIntegrationJSONBRoundTrip(t *testing.T) {
	resetJobsTable(t)
	repo := NewJobRepository(integrationDB)
	ctx := context.Background()

	j := makeJob(config.JobStatusPending, timePtr(time.Now().UTC()))
	require.NoError(t, repo.Create(ctx, j))

	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(j.Message), string(got.Message))
}
