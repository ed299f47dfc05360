package config

const (
	tableNameVar   = "TABLE_NAME"
	awsRegionVar   = "AWS_REGION"
	awsEndpointVar = "AWS_ENDPOINT_URL"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetTableName() string {
	return GetEnv(tableNameVar, "auth-users")
}

func (Store) GetAWSRegion() string {
	return GetEnv(awsRegionVar, "eu-west-1")
}

// GetAWSEndpoint returns a base endpoint override for local stacks
// (DynamoDB Local, LocalStack). Empty means the real AWS endpoints.
func (Store) GetAWSEndpoint() string {
	return GetEnv(awsEndpointVar, "")
}
