package credential

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PolicyVersion = "2012-10-17"

	listStatementID = "S3ListAssets"
	crudStatementID = "S3CrudAssets"
)

// ListActions and ObjectActions are the only two permission groups a lease ever carries.
var (
	ListActions   = []string{"s3:ListBucket"}
	ObjectActions = []string{"s3:DeleteObject", "s3:PutObject", "s3:PutObjectAcl"}
)

// Policy is an inline access policy attached to a federation request.
type Policy struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one allow rule of a Policy.
type Statement struct {
	Sid       string                         `json:"Sid"`
	Effect    string                         `json:"Effect"`
	Action    []string                       `json:"Action"`
	Resource  []string                       `json:"Resource"`
	Condition map[string]map[string][]string `json:"Condition,omitempty"`
}

// NewPolicy builds the bucket policy for a lease.
// With an empty key prefix it covers the whole bucket; otherwise listing and object access
// are confined to keys under prefix.
func NewPolicy(bucket, keyPrefix string) Policy {
	keyPrefix = strings.Trim(keyPrefix, "/")

	list := Statement{
		Sid:      listStatementID,
		Effect:   "Allow",
		Action:   append([]string(nil), ListActions...),
		Resource: []string{bucketARN(bucket)},
	}
	objects := Statement{
		Sid:      crudStatementID,
		Effect:   "Allow",
		Action:   append([]string(nil), ObjectActions...),
		Resource: []string{bucketARN(bucket) + "/*"},
	}

	if keyPrefix != "" {
		list.Condition = map[string]map[string][]string{
			"StringLike": {"s3:prefix": {keyPrefix, keyPrefix + "/*"}},
		}
		objects.Resource = []string{fmt.Sprintf("%s/%s/*", bucketARN(bucket), keyPrefix)}
	}

	return Policy{
		Version:   PolicyVersion,
		Statement: []Statement{list, objects},
	}
}

// JSON serializes the policy for the federation call.
func (p Policy) JSON() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy: %w", err)
	}
	return string(raw), nil
}

func bucketARN(bucket string) string {
	return "arn:aws:s3:::" + bucket
}
