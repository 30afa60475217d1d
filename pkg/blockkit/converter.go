// Package blockkit converts RJSF (React JSON Schema Form) objects into
// Slack Block Kit blocks, and extracts submitted values back out of block
// action state. Forms arrive from the pipeline as schema/formData/uiSchema
// triples; the rendered blocks carry enough state in their ids to round
// trip a submission.
package blockkit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// Form is an RJSF form definition.
type Form struct {
	Schema   map[string]interface{} `json:"schema"`
	FormData map[string]interface{} `json:"formData"`
	UISchema map[string]interface{} `json:"uiSchema"`
}

// SubmitAction is the action id and value marker on the submit button.
const SubmitAction = "submit_form"

// ActionPrefix prefixes every input element's action id; stripping it
// recovers the field name on submission.
const ActionPrefix = "action_"

// Convert renders a form into Slack blocks. taskID, when non-empty, rides
// in the submit button value so the submission can be correlated back to
// the originating task.
func Convert(form *Form, taskID string) []slack.Block {
	schema := form.Schema
	if schema == nil {
		schema = map[string]interface{}{}
	}

	var blocks []slack.Block

	title, hasTitle := schema["title"].(string)
	if hasTitle {
		blocks = append(blocks, slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, title, true, false)))
	}

	desc, hasDesc := schema["description"].(string)
	if hasDesc {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, desc, false, false), nil, nil))
	}

	if hasTitle || hasDesc {
		blocks = append(blocks, slack.NewDividerBlock())
	}

	properties, _ := schema["properties"].(map[string]interface{})
	required := stringSet(schema["required"])

	for _, fieldName := range fieldOrder(properties, form.UISchema) {
		fieldSchema, _ := properties[fieldName].(map[string]interface{})
		if fieldSchema == nil {
			continue
		}

		var value interface{}
		if form.FormData != nil {
			value = form.FormData[fieldName]
		}
		fieldUI, _ := uiFor(form.UISchema, fieldName)

		blocks = append(blocks, convertField(fieldName, fieldSchema, value, fieldUI, required[fieldName])...)
	}

	blocks = append(blocks, slack.NewDividerBlock())
	blocks = append(blocks, submitButton(taskID))

	return blocks
}

// fieldOrder returns property names honoring uiSchema's ui:order when
// present, alphabetical otherwise. JSON object order is not observable
// through a decoded map, so forms that care about ordering declare it.
func fieldOrder(properties map[string]interface{}, uiSchema map[string]interface{}) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	order, ok := uiSchema["ui:order"].([]interface{})
	if !ok {
		return names
	}

	seen := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(names))
	for _, entry := range order {
		name, _ := entry.(string)
		if _, exists := properties[name]; exists && !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	for _, name := range names {
		if !seen[name] {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

func uiFor(uiSchema map[string]interface{}, fieldName string) (map[string]interface{}, bool) {
	if uiSchema == nil {
		return nil, false
	}
	sub, ok := uiSchema[fieldName].(map[string]interface{})
	return sub, ok
}

func convertField(fieldName string, fieldSchema map[string]interface{}, value interface{}, fieldUI map[string]interface{}, isRequired bool) []slack.Block {
	if _, hasEnum := fieldSchema["enum"]; hasEnum {
		return convertEnumField(fieldName, fieldSchema, value, fieldUI, isRequired)
	}

	fieldType, _ := fieldSchema["type"].(string)
	switch fieldType {
	case "number", "integer":
		return convertNumberField(fieldName, fieldSchema, value, isRequired)
	case "boolean":
		return convertBooleanField(fieldName, fieldSchema, value, isRequired)
	case "array":
		return convertArrayField(fieldName, fieldSchema, value, isRequired)
	case "object":
		return convertObjectField(fieldName, fieldSchema, value, fieldUI, isRequired)
	default:
		// string and anything unrecognized render as a text input
		return convertStringField(fieldName, fieldSchema, value, fieldUI, isRequired)
	}
}

func fieldLabel(fieldName string, fieldSchema map[string]interface{}, isRequired bool) string {
	title, ok := fieldSchema["title"].(string)
	if !ok {
		title = fieldName
	}
	if isRequired {
		title += " *"
	}
	return title
}

func blockID(fieldName string) string {
	return fmt.Sprintf("input_%s_%s", fieldName, uuid.NewString()[:8])
}

func actionID(fieldName string) string {
	return ActionPrefix + fieldName
}

func convertStringField(fieldName string, fieldSchema map[string]interface{}, value interface{}, fieldUI map[string]interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)

	var placeholder *slack.TextBlockObject
	if ph, ok := fieldUI["ui:placeholder"].(string); ok {
		placeholder = slack.NewTextBlockObject(slack.PlainTextType, ph, false, false)
	}

	element := slack.NewPlainTextInputBlockElement(placeholder, actionID(fieldName))

	// textarea when uiSchema asks for one or the initial value is long
	strValue, isString := value.(string)
	element.Multiline = fieldUI["ui:widget"] == "textarea" || (isString && len(strValue) > 100)

	if value != nil {
		element.InitialValue = fmt.Sprintf("%v", value)
	}

	label := slack.NewTextBlockObject(slack.PlainTextType, title, true, false)
	return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
}

func convertNumberField(fieldName string, fieldSchema map[string]interface{}, value interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)

	isDecimal := fieldSchema["type"] == "number"
	element := slack.NewNumberInputBlockElement(nil, actionID(fieldName), isDecimal)

	if min, ok := fieldSchema["minimum"]; ok {
		element.MinValue = numberString(min)
	}
	if max, ok := fieldSchema["maximum"]; ok {
		element.MaxValue = numberString(max)
	}
	if value != nil {
		element.InitialValue = numberString(value)
	}

	label := slack.NewTextBlockObject(slack.PlainTextType, title, true, false)
	return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
}

// numberString formats a JSON number without a spurious fraction. Decoded
// JSON numbers arrive as float64 even for integers.
func numberString(v interface{}) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

func convertBooleanField(fieldName string, fieldSchema map[string]interface{}, value interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)

	option := slack.NewOptionBlockObject("true",
		slack.NewTextBlockObject(slack.PlainTextType, title, true, false), nil)

	element := slack.NewCheckboxGroupsBlockElement(actionID(fieldName), option)
	if value == true {
		element.InitialOptions = []*slack.OptionBlockObject{option}
	}

	label := slack.NewTextBlockObject(slack.PlainTextType, title, true, false)
	return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
}

func convertEnumField(fieldName string, fieldSchema map[string]interface{}, value interface{}, fieldUI map[string]interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)
	options := enumOptions(fieldSchema)
	label := slack.NewTextBlockObject(slack.PlainTextType, title, true, false)

	if fieldUI["ui:widget"] == "radio" {
		element := slack.NewRadioButtonsBlockElement(actionID(fieldName), options...)
		if value != nil {
			element.InitialOption = matchOption(options, value)
		}
		return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
	}

	element := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, nil, actionID(fieldName), options...)
	if value != nil {
		element.InitialOption = matchOption(options, value)
	}
	return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
}

func convertArrayField(fieldName string, fieldSchema map[string]interface{}, value interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)
	label := slack.NewTextBlockObject(slack.PlainTextType, title, true, false)

	items, _ := fieldSchema["items"].(map[string]interface{})
	if items != nil {
		if _, hasEnum := items["enum"]; hasEnum {
			options := enumOptions(items)
			element := slack.NewOptionsMultiSelectBlockElement(
				slack.MultiOptTypeStatic, nil, actionID(fieldName), options...)

			if values, ok := value.([]interface{}); ok {
				var initial []*slack.OptionBlockObject
				for _, v := range values {
					if opt := matchOption(options, v); opt != nil {
						initial = append(initial, opt)
					}
				}
				element.InitialOptions = initial
			}
			return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
		}
	}

	// free-form arrays fall back to a comma-separated text input
	placeholder := slack.NewTextBlockObject(slack.PlainTextType, "Enter comma-separated values", false, false)
	element := slack.NewPlainTextInputBlockElement(placeholder, actionID(fieldName))

	if values, ok := value.([]interface{}); ok {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		element.InitialValue = strings.Join(parts, ", ")
	}
	return []slack.Block{slack.NewInputBlock(blockID(fieldName), label, nil, element)}
}

func convertObjectField(fieldName string, fieldSchema map[string]interface{}, value interface{}, fieldUI map[string]interface{}, isRequired bool) []slack.Block {
	title := fieldLabel(fieldName, fieldSchema, isRequired)

	blocks := []slack.Block{slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, "*"+title+"*", false, false), nil, nil)}

	properties, _ := fieldSchema["properties"].(map[string]interface{})
	required := stringSet(fieldSchema["required"])
	valueMap, _ := value.(map[string]interface{})

	for _, propName := range fieldOrder(properties, fieldUI) {
		propSchema, _ := properties[propName].(map[string]interface{})
		if propSchema == nil {
			continue
		}

		var propValue interface{}
		if valueMap != nil {
			propValue = valueMap[propName]
		}
		propUI, _ := uiFor(fieldUI, propName)

		blocks = append(blocks, convertField(
			fieldName+"."+propName, propSchema, propValue, propUI, required[propName])...)
	}

	return blocks
}

func enumOptions(schema map[string]interface{}) []*slack.OptionBlockObject {
	enumValues, _ := schema["enum"].([]interface{})
	enumNames, _ := schema["enumNames"].([]interface{})

	options := make([]*slack.OptionBlockObject, 0, len(enumValues))
	for i, enumValue := range enumValues {
		name := fmt.Sprintf("%v", enumValue)
		if i < len(enumNames) {
			name = fmt.Sprintf("%v", enumNames[i])
		}
		options = append(options, slack.NewOptionBlockObject(
			fmt.Sprintf("%v", enumValue),
			slack.NewTextBlockObject(slack.PlainTextType, name, true, false), nil))
	}
	return options
}

func matchOption(options []*slack.OptionBlockObject, value interface{}) *slack.OptionBlockObject {
	want := fmt.Sprintf("%v", value)
	for _, opt := range options {
		if opt.Value == want {
			return opt
		}
	}
	return nil
}

func stringSet(v interface{}) map[string]bool {
	set := map[string]bool{}
	entries, _ := v.([]interface{})
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			set[s] = true
		}
	}
	return set
}
