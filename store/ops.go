package store

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key is a primary key in the marketplace table.
type Key struct {
	PK string
	SK string
}

// Item is a raw attribute map, as stored.
type Item map[string]types.AttributeValue

// Precondition is a predicate about an item's current state that must
// hold for a write to apply. All listed clauses are ANDed. A failing
// precondition aborts the write (in a multi-item commit, the whole
// commit), distinctly from any transient error.
type Precondition struct {
	// Equals requires each named attribute to currently equal the given
	// value.
	Equals Item

	// Absent requires each named attribute to not exist. Listing AttrPK
	// makes a create fail if the item already exists.
	Absent []string

	// Exists requires each named attribute to exist. Listing AttrPK
	// makes an update fail instead of upserting a phantom item.
	Exists []string
}

// Mutation is the set of attribute changes applied by an update.
type Mutation struct {
	// Set assigns each named attribute.
	Set Item

	// Add atomically adds to each named numeric attribute, treating a
	// missing attribute as zero.
	Add map[string]int64
}

// WriteOp is one operation of a multi-item commit. The set of kinds is
// closed: Put, ConditionalCreate, ConditionalUpdate, and Delete.
type WriteOp interface {
	transactItem(table string) types.TransactWriteItem
}

// Put writes an item unconditionally, replacing any existing item at the
// key.
type Put struct {
	Key  Key
	Item Item
}

// ConditionalCreate writes an item only if nothing exists at the key.
type ConditionalCreate struct {
	Key  Key
	Item Item
}

// ConditionalUpdate applies a mutation to an existing item, optionally
// guarded by a precondition.
type ConditionalUpdate struct {
	Key          Key
	Mutation     Mutation
	Precondition Precondition
}

// Delete removes the item at the key, optionally guarded by a
// precondition.
type Delete struct {
	Key          Key
	Precondition Precondition
}

func (p Put) transactItem(table string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(table),
			Item:      withKey(p.Key, p.Item),
		},
	}
}

func (c ConditionalCreate) transactItem(table string) types.TransactWriteItem {
	pre := Precondition{Absent: []string{AttrPK}}
	expr, names, values := pre.compile()
	put := &types.Put{
		TableName:                aws.String(table),
		Item:                     withKey(c.Key, c.Item),
		ConditionExpression:      aws.String(expr),
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		put.ExpressionAttributeValues = values
	}
	return types.TransactWriteItem{Put: put}
}

func (u ConditionalUpdate) transactItem(table string) types.TransactWriteItem {
	updateExpr, names, values := u.Mutation.compile()
	update := &types.Update{
		TableName:                aws.String(table),
		Key:                      keyAttrs(u.Key),
		UpdateExpression:         aws.String(updateExpr),
		ExpressionAttributeNames: names,
	}
	if condExpr, condNames, condValues := u.Precondition.compile(); condExpr != "" {
		update.ConditionExpression = aws.String(condExpr)
		mergeNames(names, condNames)
		mergeValues(values, condValues)
	}
	if len(values) > 0 {
		update.ExpressionAttributeValues = values
	}
	return types.TransactWriteItem{Update: update}
}

func (d Delete) transactItem(table string) types.TransactWriteItem {
	del := &types.Delete{
		TableName: aws.String(table),
		Key:       keyAttrs(d.Key),
	}
	if expr, names, values := d.Precondition.compile(); expr != "" {
		del.ConditionExpression = aws.String(expr)
		del.ExpressionAttributeNames = names
		if len(values) > 0 {
			del.ExpressionAttributeValues = values
		}
	}
	return types.TransactWriteItem{Delete: del}
}

// compile renders the precondition as a DynamoDB condition expression.
// Clause order is deterministic (sorted attribute names) so the same
// precondition always compiles identically.
func (p Precondition) compile() (string, map[string]string, map[string]types.AttributeValue) {
	if len(p.Equals) == 0 && len(p.Absent) == 0 && len(p.Exists) == 0 {
		return "", nil, nil
	}

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var clauses []string

	i := 0
	for _, attr := range sortedKeys(p.Equals) {
		nameKey := fmt.Sprintf("#c%d", i)
		valueKey := fmt.Sprintf(":c%d", i)
		names[nameKey] = attr
		values[valueKey] = p.Equals[attr]
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	absent := append([]string(nil), p.Absent...)
	sort.Strings(absent)
	for _, attr := range absent {
		nameKey := fmt.Sprintf("#c%d", i)
		names[nameKey] = attr
		clauses = append(clauses, fmt.Sprintf("attribute_not_exists(%s)", nameKey))
		i++
	}

	exists := append([]string(nil), p.Exists...)
	sort.Strings(exists)
	for _, attr := range exists {
		nameKey := fmt.Sprintf("#c%d", i)
		names[nameKey] = attr
		clauses = append(clauses, fmt.Sprintf("attribute_exists(%s)", nameKey))
		i++
	}

	return joinClauses(clauses, " AND "), names, values
}

// compile renders the mutation as a DynamoDB update expression.
func (m Mutation) compile() (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	var setClauses []string
	i := 0
	for _, attr := range sortedKeys(m.Set) {
		nameKey := fmt.Sprintf("#s%d", i)
		valueKey := fmt.Sprintf(":s%d", i)
		names[nameKey] = attr
		values[valueKey] = m.Set[attr]
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	var addClauses []string
	addAttrs := make([]string, 0, len(m.Add))
	for attr := range m.Add {
		addAttrs = append(addAttrs, attr)
	}
	sort.Strings(addAttrs)
	for j, attr := range addAttrs {
		nameKey := fmt.Sprintf("#a%d", j)
		valueKey := fmt.Sprintf(":a%d", j)
		names[nameKey] = attr
		values[valueKey] = &types.AttributeValueMemberN{Value: strconv.FormatInt(m.Add[attr], 10)}
		addClauses = append(addClauses, fmt.Sprintf("%s %s", nameKey, valueKey))
	}

	expr := ""
	if len(setClauses) > 0 {
		expr = "SET " + joinClauses(setClauses, ", ")
	}
	if len(addClauses) > 0 {
		if expr != "" {
			expr += " "
		}
		expr += "ADD " + joinClauses(addClauses, ", ")
	}
	return expr, names, values
}

// withKey copies the item and sets the key attributes, leaving the
// caller's map untouched.
func withKey(key Key, item Item) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item)+2)
	for k, v := range item {
		out[k] = v
	}
	out[AttrPK] = &types.AttributeValueMemberS{Value: key.PK}
	out[AttrSK] = &types.AttributeValueMemberS{Value: key.SK}
	return out
}

func keyAttrs(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func sortedKeys(item Item) []string {
	out := make([]string, 0, len(item))
	for k := range item {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mergeNames(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func mergeValues(dst, src map[string]types.AttributeValue) {
	for k, v := range src {
		dst[k] = v
	}
}

// joinClauses joins strings with a separator (avoiding strings package import).
func joinClauses(clauses []string, sep string) string {
	if len(clauses) == 0 {
		return ""
	}
	result := clauses[0]
	for _, c := range clauses[1:] {
		result += sep + c
	}
	return result
}
