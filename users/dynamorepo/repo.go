package dynamorepo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/authcore/auth-service/users"
)

const (
	pkPrefix  = "USER#"
	profileSK = "PROFILE"
)

// API is the slice of the DynamoDB client the repo uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

var _ users.Repo = (*Repo)(nil)

// Repo stores user profiles in a single DynamoDB table, one item per user
// under pk=USER#<email>, sk=PROFILE.
type Repo struct {
	api     API
	table   string
	nowTime func() time.Time
}

type RepoOption func(*Repo)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RepoOption {
	return func(r *Repo) {
		r.nowTime = nowFunc
	}
}

func New(api API, table string, options ...RepoOption) *Repo {
	r := &Repo{
		api:     api,
		table:   table,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// record mirrors the table item. Timestamps are stored as RFC 3339 strings.
type record struct {
	PK               string `dynamodbav:"pk"`
	SK               string `dynamodbav:"sk"`
	Email            string `dynamodbav:"email"`
	Name             string `dynamodbav:"name"`
	PasswordHash     string `dynamodbav:"password_hash"`
	CreatedAt        string `dynamodbav:"createdAt"`
	UpdatedAt        string `dynamodbav:"updatedAt"`
	LastLoginAt      string `dynamodbav:"lastLoginAt,omitempty"`
	FailedLoginCount int    `dynamodbav:"failedLoginCount"`
	LockUntil        string `dynamodbav:"lockUntil,omitempty"`
}

func (r *Repo) Get(ctx context.Context, email string) (*users.User, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       userKey(email),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[dynamorepo.Get] GetItem")
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, errors.Wrap(err, "[dynamorepo.Get] unmarshal item")
	}
	return rec.toUser()
}

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	item, err := attributevalue.MarshalMap(newRecord(user))
	if err != nil {
		return errors.Wrap(err, "[dynamorepo.Create] marshal item")
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return users.ErrUserExists
		}
		return errors.Wrap(err, "[dynamorepo.Create] PutItem")
	}
	return nil
}

func (r *Repo) UpdateLoginMeta(ctx context.Context, email string, meta users.LoginMeta) error {
	sets := []string{"updatedAt = :u"}
	values := map[string]types.AttributeValue{
		":u": &types.AttributeValueMemberS{Value: formatTime(r.nowTime())},
	}
	var removes []string

	if meta.LastLoginAt != nil {
		sets = append(sets, "lastLoginAt = :l")
		values[":l"] = &types.AttributeValueMemberS{Value: formatTime(*meta.LastLoginAt)}
	}
	if meta.FailedLoginCount != nil {
		sets = append(sets, "failedLoginCount = :f")
		values[":f"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*meta.FailedLoginCount)}
	}
	if meta.LockUntil != nil {
		sets = append(sets, "lockUntil = :k")
		values[":k"] = &types.AttributeValueMemberS{Value: formatTime(*meta.LockUntil)}
	} else if meta.ClearLock {
		removes = append(removes, "lockUntil")
	}

	_, err := r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       userKey(email),
		UpdateExpression:          aws.String(buildUpdateExpression(sets, removes)),
		ExpressionAttributeValues: values,
	})
	return errors.Wrap(err, "[dynamorepo.UpdateLoginMeta] UpdateItem")
}

// RecordFailedAttempt applies the lockout policy and writes the counter and
// lock expiry in one update.
func (r *Repo) RecordFailedAttempt(ctx context.Context, email string, currentCount int) (int, error) {
	now := r.nowTime()
	next, lockUntil := users.NextLockout(currentCount, now)

	sets := []string{"failedLoginCount = :f", "updatedAt = :u"}
	values := map[string]types.AttributeValue{
		":f": &types.AttributeValueMemberN{Value: strconv.Itoa(next)},
		":u": &types.AttributeValueMemberS{Value: formatTime(now)},
	}
	var removes []string
	if lockUntil != nil {
		sets = append(sets, "lockUntil = :k")
		values[":k"] = &types.AttributeValueMemberS{Value: formatTime(*lockUntil)}
	} else {
		removes = append(removes, "lockUntil")
	}

	_, err := r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       userKey(email),
		UpdateExpression:          aws.String(buildUpdateExpression(sets, removes)),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return 0, errors.Wrap(err, "[dynamorepo.RecordFailedAttempt] UpdateItem")
	}
	return next, nil
}

func userKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pkPrefix + email},
		"sk": &types.AttributeValueMemberS{Value: profileSK},
	}
}

func buildUpdateExpression(sets, removes []string) string {
	expr := "SET " + strings.Join(sets, ", ")
	if len(removes) > 0 {
		expr += " REMOVE " + strings.Join(removes, ", ")
	}
	return expr
}

func newRecord(user *users.User) record {
	rec := record{
		PK:               pkPrefix + user.Email,
		SK:               profileSK,
		Email:            user.Email,
		Name:             user.Name,
		PasswordHash:     user.PasswordHash,
		CreatedAt:        formatTime(user.CreatedAt),
		UpdatedAt:        formatTime(user.UpdatedAt),
		FailedLoginCount: user.FailedLoginCount,
	}
	if user.LastLoginAt != nil {
		rec.LastLoginAt = formatTime(*user.LastLoginAt)
	}
	if user.LockUntil != nil {
		rec.LockUntil = formatTime(*user.LockUntil)
	}
	return rec
}

func (rec record) toUser() (*users.User, error) {
	user := &users.User{
		Email:            rec.Email,
		Name:             rec.Name,
		PasswordHash:     rec.PasswordHash,
		FailedLoginCount: rec.FailedLoginCount,
	}

	var err error
	if user.CreatedAt, err = parseTime(rec.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "[dynamorepo] createdAt")
	}
	if user.UpdatedAt, err = parseTime(rec.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "[dynamorepo] updatedAt")
	}
	if rec.LastLoginAt != "" {
		lastLogin, err := parseTime(rec.LastLoginAt)
		if err != nil {
			return nil, errors.Wrap(err, "[dynamorepo] lastLoginAt")
		}
		user.LastLoginAt = &lastLogin
	}
	if rec.LockUntil != "" {
		lockUntil, err := parseTime(rec.LockUntil)
		if err != nil {
			return nil, errors.Wrap(err, "[dynamorepo] lockUntil")
		}
		user.LockUntil = &lockUntil
	}
	return user, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
