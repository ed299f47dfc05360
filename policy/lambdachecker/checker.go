package lambdachecker

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/pkg/errors"

	"github.com/authcore/auth-service/policy"
)

// API is the slice of the Lambda client the checker uses.
type API interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

var _ policy.Checker = (*Checker)(nil)

// Checker invokes the password-check function synchronously. The function
// speaks the proxy-integration dialect, so the candidate password travels
// as a JSON string inside a "body" field and the verdict usually comes back
// wrapped the same way.
type Checker struct {
	api          API
	functionName string
}

func New(api API, functionName string) *Checker {
	return &Checker{
		api:          api,
		functionName: functionName,
	}
}

func (c *Checker) Check(ctx context.Context, password string) (*policy.Result, error) {
	requestBody, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return nil, errors.Wrap(err, "[lambdachecker] marshal request body")
	}
	payload, err := json.Marshal(map[string]string{"body": string(requestBody)})
	if err != nil {
		return nil, errors.Wrap(err, "[lambdachecker] marshal payload")
	}

	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[lambdachecker] invoke")
	}
	if out.FunctionError != nil {
		return nil, errors.Errorf("[lambdachecker] function error: %s", aws.ToString(out.FunctionError))
	}

	return parseResponse(out.Payload)
}

// parseResponse accepts both a proxy response with a nested JSON body and a
// bare {ok, reasons} object.
func parseResponse(payload []byte) (*policy.Result, error) {
	var envelope struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Body != "" {
		payload = []byte(envelope.Body)
	}

	result := &policy.Result{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, errors.Wrap(err, "[lambdachecker] decode response")
	}
	return result, nil
}
