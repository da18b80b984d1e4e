package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/visitsafe-api/internal/config"
)

// Bootstrap creates the VisitSafe tables if they don't already exist.
// Tables that already exist are skipped, so it can run on every startup.
func Bootstrap(ctx context.Context, handle *Handle, tables config.DynamoTables) error {
	api, err := handle.Client(ctx)
	if err != nil {
		return err
	}
	createTable(ctx, api, hashTable(tables.Residencies, fieldResidencyID))
	createTable(ctx, api, residencyScopedTable(tables.Residents, fieldResidentID))
	createTable(ctx, api, residencyScopedTable(tables.Units, fieldUnitID))
	createTable(ctx, api, residencyScopedTable(tables.Blocks, fieldBlockID))
	createTable(ctx, api, residencyScopedTable(tables.VisitorRequests, fieldRequestID))
	return nil
}

func hashTable(name, pk string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(pk), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
		},
	}
}

// residencyScopedTable partitions by residency_id with sk as the range key.
func residencyScopedTable(name, sk string) *dynamodb.CreateTableInput {
	in := hashTable(name, fieldResidencyID)
	in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
		AttributeName: aws.String(sk), AttributeType: types.ScalarAttributeTypeS,
	})
	in.KeySchema = append(in.KeySchema, types.KeySchemaElement{
		AttributeName: aws.String(sk), KeyType: types.KeyTypeRange,
	})
	return in
}

func createTable(ctx context.Context, api API, input *dynamodb.CreateTableInput) {
	_, err := api.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}
