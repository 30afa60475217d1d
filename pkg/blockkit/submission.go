package blockkit

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// SubmitValue is the JSON payload carried in the submit button's value.
type SubmitValue struct {
	Action string `json:"action"`
	TaskID string `json:"task_id,omitempty"`
}

func submitButton(taskID string) slack.Block {
	value, _ := json.Marshal(SubmitValue{Action: SubmitAction, TaskID: taskID})

	button := slack.NewButtonBlockElement(SubmitAction, string(value),
		slack.NewTextBlockObject(slack.PlainTextType, "Submit", true, false))

	return slack.NewActionBlock("submit_"+uuid.NewString()[:8], button)
}

// ParseSubmitValue decodes a submit button value. Returns an empty value
// for malformed payloads rather than failing the interaction.
func ParseSubmitValue(raw string) SubmitValue {
	var v SubmitValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return SubmitValue{}
	}
	return v
}

// ExtractFormData pulls submitted field values out of block action state.
// Field names are recovered by stripping the action id prefix; dotted names
// from flattened object fields are re-nested.
func ExtractFormData(state *slack.BlockActionStates) map[string]interface{} {
	formData := map[string]interface{}{}
	if state == nil {
		return formData
	}

	for _, actions := range state.Values {
		for aID, action := range actions {
			if !strings.HasPrefix(aID, ActionPrefix) {
				continue
			}
			fieldName := strings.TrimPrefix(aID, ActionPrefix)
			setNested(formData, fieldName, actionValue(action))
		}
	}

	return formData
}

// actionValue converts one block action into a form value based on the
// element type that produced it.
func actionValue(action slack.BlockAction) interface{} {
	switch action.Type {
	case "checkboxes":
		return len(action.SelectedOptions) > 0
	case "radio_buttons", "static_select":
		return action.SelectedOption.Value
	case "multi_static_select":
		values := make([]string, 0, len(action.SelectedOptions))
		for _, opt := range action.SelectedOptions {
			values = append(values, opt.Value)
		}
		return values
	case "number_input":
		return parseNumber(action.Value)
	default:
		return action.Value
	}
}

func parseNumber(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// setNested stores value under a possibly dotted field name, creating
// intermediate maps as needed.
func setNested(formData map[string]interface{}, fieldName string, value interface{}) {
	parts := strings.Split(fieldName, ".")
	current := formData
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// FieldNameFromBlockID recovers the field name from an input block id of
// the form "input_<field>_<suffix>".
func FieldNameFromBlockID(blockID string) (string, bool) {
	if !strings.HasPrefix(blockID, "input_") {
		return "", false
	}
	rest := strings.TrimPrefix(blockID, "input_")
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}
