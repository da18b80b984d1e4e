package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/visitsafe-api/internal/domain"
)

// VisitorRequestRepo provides typed DynamoDB operations for the visitor_requests table.
type VisitorRequestRepo struct {
	handle    *Handle
	tableName string
}

func NewVisitorRequestRepo(handle *Handle, tableName string) *VisitorRequestRepo {
	return &VisitorRequestRepo{handle: handle, tableName: tableName}
}

// Create stores a new request. An existing item with the same key is never
// overwritten; that case is reported as ErrConflict.
func (r *VisitorRequestRepo) Create(ctx context.Context, v *domain.VisitorRequest) error {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal visitor request: %w", err)
	}
	_, err = api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#rid)"),
		ExpressionAttributeNames: map[string]string{
			"#rid": fieldRequestID,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("visitor request %s already exists: %w", v.RequestID, domain.ErrConflict)
	}
	return err
}

func (r *VisitorRequestRepo) Get(ctx context.Context, residencyID, requestID string) (*domain.VisitorRequest, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            residencyKey(residencyID, fieldRequestID, requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("visitor request not found: %w", domain.ErrNotFound)
	}
	var v domain.VisitorRequest
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Resolve applies the pending→resolved transition as one conditional write.
// If the stored status is no longer pending (or the item is gone) at write
// time, nothing is written and ErrConflict is returned.
func (r *VisitorRequestRepo) Resolve(ctx context.Context, residencyID, requestID string, t domain.Transition) error {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		fieldStatus:    t.Status,
		fieldUpdatedAt: t.At,
		fieldActionBy:  t.ActionBy,
	}
	switch t.Status {
	case domain.StatusApproved:
		updates[fieldApprovedBy] = t.ActionBy
		updates[fieldApprovedAt] = t.At
	case domain.StatusRejected:
		updates[fieldRejectedBy] = t.ActionBy
		updates[fieldRejectedAt] = t.At
	default:
		return fmt.Errorf("cannot transition to %q: %w", t.Status, domain.ErrBadRequest)
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#st"] = fieldStatus
	ue.Values[":pending"] = &types.AttributeValueMemberS{Value: string(domain.StatusPending)}

	_, err = api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       residencyKey(residencyID, fieldRequestID, requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#st = :pending"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("visitor request %s is no longer pending: %w", requestID, domain.ErrConflict)
	}
	return err
}
