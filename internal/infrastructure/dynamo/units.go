package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitsafe-api/internal/domain"
)

// UnitRepo reads the legacy units reference table.
type UnitRepo struct {
	handle    *Handle
	tableName string
}

func NewUnitRepo(handle *Handle, tableName string) *UnitRepo {
	return &UnitRepo{handle: handle, tableName: tableName}
}

func (r *UnitRepo) Get(ctx context.Context, residencyID, unitID string) (*domain.Unit, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       residencyKey(residencyID, fieldUnitID, unitID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("unit not found: %w", domain.ErrNotFound)
	}
	var u domain.Unit
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
