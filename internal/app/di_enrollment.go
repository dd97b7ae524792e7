package app

import (
	"fmt"

	enrollmentRepository "github.com/allisson/factorauth/internal/enrollment/repository"
	enrollmentUsecase "github.com/allisson/factorauth/internal/enrollment/usecase"
)

// WrappedKeyRepository returns the local enrollment repository for the
// configured database driver.
func (c *Container) WrappedKeyRepository() (enrollmentUsecase.WrappedKeyRepository, error) {
	c.wrappedKeyRepoInit.Do(func() {
		repo, err := c.initWrappedKeyRepository()
		if err != nil {
			c.initErrors["wrappedKeyRepo"] = err
			return
		}
		c.wrappedKeyRepo = repo
	})
	if err, exists := c.initErrors["wrappedKeyRepo"]; exists {
		return nil, err
	}
	return c.wrappedKeyRepo, nil
}

// RemoteStore returns the backend API store. Deployments inject their
// implementation through SetRemoteStore; without one, a loopback store over
// an in-memory cache keeps single-node setups working.
func (c *Container) RemoteStore() enrollmentUsecase.RemoteStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remoteStore == nil {
		c.remoteStore = enrollmentRepository.NewLoopbackRemoteStore()
	}
	return c.remoteStore
}

// SetRemoteStore injects the backend API store implementation.
func (c *Container) SetRemoteStore(store enrollmentUsecase.RemoteStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteStore = store
}

// EnrollmentUseCase returns the enrollment use case, decorated with metrics.
func (c *Container) EnrollmentUseCase() (enrollmentUsecase.EnrollmentUseCase, error) {
	c.enrollmentUseCaseInit.Do(func() {
		useCase, err := c.initEnrollmentUseCase()
		if err != nil {
			c.initErrors["enrollmentUseCase"] = err
			return
		}
		c.enrollmentUseCase = useCase
	})
	if err, exists := c.initErrors["enrollmentUseCase"]; exists {
		return nil, err
	}
	return c.enrollmentUseCase, nil
}

func (c *Container) initWrappedKeyRepository() (enrollmentUsecase.WrappedKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for wrapped key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return enrollmentRepository.NewMySQLWrappedKeyRepository(db), nil
	case "postgres":
		return enrollmentRepository.NewPostgreSQLWrappedKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initEnrollmentUseCase() (enrollmentUsecase.EnrollmentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	repo, err := c.WrappedKeyRepository()
	if err != nil {
		return nil, err
	}

	doubleLayer, err := c.DoubleLayer()
	if err != nil {
		return nil, err
	}

	executor, err := c.Executor()
	if err != nil {
		return nil, err
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := enrollmentUsecase.NewEnrollmentUseCase(
		txManager,
		repo,
		c.RemoteStore(),
		doubleLayer,
		c.ThreatDetector(),
		c.Evaluator(),
		executor,
		c.Logger(),
	)

	return enrollmentUsecase.NewEnrollmentUseCaseWithMetrics(useCase, business), nil
}
