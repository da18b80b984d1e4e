package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitsafe-api/internal/domain"
)

// BlockRepo reads the legacy blocks reference table.
type BlockRepo struct {
	handle    *Handle
	tableName string
}

func NewBlockRepo(handle *Handle, tableName string) *BlockRepo {
	return &BlockRepo{handle: handle, tableName: tableName}
}

func (r *BlockRepo) Get(ctx context.Context, residencyID, blockID string) (*domain.Block, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       residencyKey(residencyID, fieldBlockID, blockID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("block not found: %w", domain.ErrNotFound)
	}
	var b domain.Block
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
