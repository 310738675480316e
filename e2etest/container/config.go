package container

// ImageConfig contains all images and their respective tags
// needed for running e2e tests.
type ImageConfig struct {
	MongoRepository    string
	MongoVersion       string
	RabbitMqRepository string
	RabbitMqVersion    string
}

const (
	dockerMongoRepository    = "mongo"
	dockerMongoVersionTag    = "7.0"
	dockerRabbitMqRepository = "rabbitmq"
	dockerRabbitMqVersionTag = "3.13-management"
)

// NewImageConfig returns ImageConfig needed for running e2e test.
func NewImageConfig() ImageConfig {
	return ImageConfig{
		MongoRepository:    dockerMongoRepository,
		MongoVersion:       dockerMongoVersionTag,
		RabbitMqRepository: dockerRabbitMqRepository,
		RabbitMqVersion:    dockerRabbitMqVersionTag,
	}
}
