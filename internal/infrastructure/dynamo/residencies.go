package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitsafe-api/internal/domain"
)

// ResidencyRepo provides typed DynamoDB operations for the residencies table.
type ResidencyRepo struct {
	handle    *Handle
	tableName string
}

func NewResidencyRepo(handle *Handle, tableName string) *ResidencyRepo {
	return &ResidencyRepo{handle: handle, tableName: tableName}
}

func (r *ResidencyRepo) Get(ctx context.Context, residencyID string) (*domain.Residency, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldResidencyID, residencyID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("residency not found: %w", domain.ErrNotFound)
	}
	var res domain.Residency
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetAdminDeviceToken replaces the residency's admin device token.
func (r *ResidencyRepo) SetAdminDeviceToken(ctx context.Context, residencyID, token string) error {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return err
	}
	ue, err := buildUpdateExpr(map[string]interface{}{fieldAdminDeviceToken: token})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldResidencyID
	_, err = api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldResidencyID, residencyID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("residency not found: %w", domain.ErrNotFound)
	}
	return err
}
