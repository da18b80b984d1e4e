package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/visitsafe-api/internal/domain"
)

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100

// ResidentRepo provides typed DynamoDB operations for the residents table.
type ResidentRepo struct {
	handle    *Handle
	tableName string
}

func NewResidentRepo(handle *Handle, tableName string) *ResidentRepo {
	return &ResidentRepo{handle: handle, tableName: tableName}
}

func (r *ResidentRepo) Get(ctx context.Context, residencyID, residentID string) (*domain.Resident, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       residencyKey(residencyID, fieldResidentID, residentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("resident not found: %w", domain.ErrNotFound)
	}
	var res domain.Resident
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByUnit returns residents whose unit_id equals unitID.
func (r *ResidentRepo) ListByUnit(ctx context.Context, residencyID, unitID string) ([]domain.Resident, error) {
	return r.query(ctx, residencyID, "#u = :u",
		map[string]string{"#u": fieldUnitID},
		map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: unitID}},
	)
}

// ListLegacy returns residents that carry a legacy unit number. Block names
// are compared after normalization, which cannot be expressed as a filter, so
// the caller does the final match.
func (r *ResidentRepo) ListLegacy(ctx context.Context, residencyID string) ([]domain.Resident, error) {
	return r.query(ctx, residencyID, "attribute_exists(#n)",
		map[string]string{"#n": fieldUnitNumber},
		nil,
	)
}

// ListWithDeviceToken returns residents holding a non-empty device token.
func (r *ResidentRepo) ListWithDeviceToken(ctx context.Context, residencyID string) ([]domain.Resident, error) {
	return r.query(ctx, residencyID, "attribute_exists(#t) AND #t <> :empty",
		map[string]string{"#t": fieldDeviceToken},
		map[string]types.AttributeValue{":empty": &types.AttributeValueMemberS{Value: ""}},
	)
}

func (r *ResidentRepo) query(ctx context.Context, residencyID, filter string, names map[string]string, values map[string]types.AttributeValue) ([]domain.Resident, error) {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return nil, err
	}
	allNames := map[string]string{"#pk": fieldResidencyID}
	for k, v := range names {
		allNames[k] = v
	}
	allValues := map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: residencyID}}
	for k, v := range values {
		allValues[k] = v
	}
	items, err := queryAll(ctx, api, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  allNames,
		ExpressionAttributeValues: allValues,
	})
	if err != nil {
		return nil, err
	}
	var residents []domain.Resident
	if err := attributevalue.UnmarshalListOfMaps(items, &residents); err != nil {
		return nil, err
	}
	return residents, nil
}

// SetDeviceToken registers the resident's push token. Unknown residents are
// reported as ErrNotFound rather than created.
func (r *ResidentRepo) SetDeviceToken(ctx context.Context, residencyID, residentID, token string) error {
	api, err := r.handle.Client(ctx)
	if err != nil {
		return err
	}
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldDeviceToken:          token,
		fieldDeviceTokenUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#sk"] = fieldResidentID
	_, err = api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       residencyKey(residencyID, fieldResidentID, residentID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#sk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("resident not found: %w", domain.ErrNotFound)
	}
	return err
}

// RemoveDeviceTokens evicts the device token fields from the given residents
// in batches of at most maxTransactItems.
func (r *ResidentRepo) RemoveDeviceTokens(ctx context.Context, residencyID string, residentIDs []string) error {
	if len(residentIDs) == 0 {
		return nil
	}
	api, err := r.handle.Client(ctx)
	if err != nil {
		return err
	}
	// A transaction may not touch the same item twice.
	seen := make(map[string]struct{}, len(residentIDs))
	unique := make([]string, 0, len(residentIDs))
	for _, id := range residentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	ue := buildRemoveExpr(fieldDeviceToken, fieldDeviceTokenUpdatedAt)
	for start := 0; start < len(unique); start += maxTransactItems {
		end := min(start+maxTransactItems, len(unique))
		items := make([]types.TransactWriteItem, 0, end-start)
		for _, id := range unique[start:end] {
			items = append(items, types.TransactWriteItem{
				Update: &types.Update{
					TableName:                aws.String(r.tableName),
					Key:                      residencyKey(residencyID, fieldResidentID, id),
					UpdateExpression:         aws.String(ue.Expr),
					ExpressionAttributeNames: ue.Names,
				},
			})
		}
		if _, err := api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return fmt.Errorf("remove device tokens: %w", err)
		}
	}
	return nil
}
