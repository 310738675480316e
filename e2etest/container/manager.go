package container

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// Manager owns the docker resources of one e2e test run and tears them all
// down together.
type Manager struct {
	cfg  ImageConfig
	pool *dockertest.Pool

	mu        sync.Mutex
	resources []*dockertest.Resource
}

func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("failed to create docker pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("docker is not available: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	m := &Manager{
		cfg:  NewImageConfig(),
		pool: pool,
	}
	t.Cleanup(m.ClearResources)
	return m, nil
}

// RunMongoResource starts a mongo container and returns its host port.
func (m *Manager) RunMongoResource(username, password string) (string, error) {
	resource, err := m.pool.RunWithOptions(&dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			fmt.Sprintf("MONGO_INITDB_ROOT_USERNAME=%s", username),
			fmt.Sprintf("MONGO_INITDB_ROOT_PASSWORD=%s", password),
		},
	}, autoRemove)
	if err != nil {
		return "", fmt.Errorf("failed to start mongo container: %w", err)
	}
	m.track(resource)
	return resource.GetHostPort("27017/tcp"), nil
}

// RunRabbitMqResource starts a rabbitmq container and returns its amqp host
// port.
func (m *Manager) RunRabbitMqResource(username, password string) (string, error) {
	resource, err := m.pool.RunWithOptions(&dockertest.RunOptions{
		Repository: m.cfg.RabbitMqRepository,
		Tag:        m.cfg.RabbitMqVersion,
		Env: []string{
			fmt.Sprintf("RABBITMQ_DEFAULT_USER=%s", username),
			fmt.Sprintf("RABBITMQ_DEFAULT_PASS=%s", password),
		},
	}, autoRemove)
	if err != nil {
		return "", fmt.Errorf("failed to start rabbitmq container: %w", err)
	}
	m.track(resource)
	return resource.GetHostPort("5672/tcp"), nil
}

// Retry runs op until it succeeds or the pool's MaxWait elapses. Used to wait
// for a container to accept connections.
func (m *Manager) Retry(op func() error) error {
	return m.pool.Retry(op)
}

func (m *Manager) ClearResources() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			fmt.Printf("failed to purge container %s: %v\n", resource.Container.Name, err)
		}
	}
	m.resources = nil
}

func (m *Manager) track(resource *dockertest.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, resource)
}

func autoRemove(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{Name: "no"}
}
