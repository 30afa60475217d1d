package blockkit

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestExtractFormData(t *testing.T) {
	state := &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"input_service_ab12cd34": {
				"action_service": {Type: "plain_text_input", Value: "billing"},
			},
			"input_replicas_ef56ab78": {
				"action_replicas": {Type: "number_input", Value: "3"},
			},
			"input_dry_run_12345678": {
				"action_dry_run": {
					Type:            "checkboxes",
					SelectedOptions: []slack.OptionBlockObject{{Value: "true"}},
				},
			},
			"input_region_87654321": {
				"action_region": {
					Type:           "static_select",
					SelectedOption: slack.OptionBlockObject{Value: "eu-west"},
				},
			},
			"input_tags_11223344": {
				"action_tags": {
					Type: "multi_static_select",
					SelectedOptions: []slack.OptionBlockObject{
						{Value: "a"}, {Value: "c"},
					},
				},
			},
		},
	}

	data := ExtractFormData(state)

	assert.Equal(t, "billing", data["service"])
	assert.Equal(t, int64(3), data["replicas"])
	assert.Equal(t, true, data["dry_run"])
	assert.Equal(t, "eu-west", data["region"])
	assert.Equal(t, []string{"a", "c"}, data["tags"])
}

func TestExtractFormDataNestedFields(t *testing.T) {
	state := &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"input_owner.email_aa11bb22": {
				"action_owner.email": {Type: "plain_text_input", Value: "dev@example.com"},
			},
			"input_owner.name_cc33dd44": {
				"action_owner.name": {Type: "plain_text_input", Value: "Dev"},
			},
		},
	}

	data := ExtractFormData(state)

	owner, ok := data["owner"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "dev@example.com", owner["email"])
	assert.Equal(t, "Dev", owner["name"])
}

func TestExtractFormDataIgnoresForeignActions(t *testing.T) {
	state := &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"feedback_block": {
				"thumbs_up": {Type: "button", Value: "x"},
			},
		},
	}

	assert.Empty(t, ExtractFormData(state))
	assert.Empty(t, ExtractFormData(nil))
}

func TestExtractFormDataUncheckedCheckbox(t *testing.T) {
	state := &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"input_dry_run_12345678": {
				"action_dry_run": {Type: "checkboxes"},
			},
		},
	}

	data := ExtractFormData(state)
	assert.Equal(t, false, data["dry_run"])
}

func TestParseSubmitValueMalformed(t *testing.T) {
	assert.Equal(t, SubmitValue{}, ParseSubmitValue("not json"))

	v := ParseSubmitValue(`{"action":"submit_form"}`)
	assert.Equal(t, SubmitAction, v.Action)
	assert.Empty(t, v.TaskID)
}

func TestFieldNameFromBlockID(t *testing.T) {
	name, ok := FieldNameFromBlockID("input_service_ab12cd34")
	assert.True(t, ok)
	assert.Equal(t, "service", name)

	name, ok = FieldNameFromBlockID("input_owner.email_ab12cd34")
	assert.True(t, ok)
	assert.Equal(t, "owner.email", name)

	_, ok = FieldNameFromBlockID("submit_ab12cd34")
	assert.False(t, ok)
}
