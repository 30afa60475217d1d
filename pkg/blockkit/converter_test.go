package blockkit

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForm() *Form {
	return &Form{
		Schema: map[string]interface{}{
			"title":       "Deployment Request",
			"description": "Fill in the deployment details",
			"type":        "object",
			"required":    []interface{}{"service"},
			"properties": map[string]interface{}{
				"service": map[string]interface{}{
					"type":  "string",
					"title": "Service",
				},
				"replicas": map[string]interface{}{
					"type":    "integer",
					"title":   "Replicas",
					"minimum": float64(1),
					"maximum": float64(10),
				},
				"dry_run": map[string]interface{}{
					"type":  "boolean",
					"title": "Dry run",
				},
				"region": map[string]interface{}{
					"type":  "string",
					"title": "Region",
					"enum":  []interface{}{"us-east", "eu-west"},
				},
			},
		},
		UISchema: map[string]interface{}{
			"ui:order": []interface{}{"service", "replicas", "dry_run", "region"},
		},
	}
}

func inputBlocks(blocks []slack.Block) []*slack.InputBlock {
	var inputs []*slack.InputBlock
	for _, b := range blocks {
		if in, ok := b.(*slack.InputBlock); ok {
			inputs = append(inputs, in)
		}
	}
	return inputs
}

func TestConvertLayout(t *testing.T) {
	blocks := Convert(sampleForm(), "task-123")

	require.NotEmpty(t, blocks)

	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok, "first block should be the title header")
	assert.Equal(t, "Deployment Request", header.Text.Text)

	section, ok := blocks[1].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Fill in the deployment details", section.Text.Text)

	_, ok = blocks[2].(*slack.DividerBlock)
	assert.True(t, ok, "divider after title and description")

	// last two blocks: divider then submit actions
	_, ok = blocks[len(blocks)-2].(*slack.DividerBlock)
	assert.True(t, ok)
	actions, ok := blocks[len(blocks)-1].(*slack.ActionBlock)
	require.True(t, ok)
	assert.Contains(t, actions.BlockID, "submit_")
}

func TestConvertFieldOrderAndTypes(t *testing.T) {
	blocks := Convert(sampleForm(), "")
	inputs := inputBlocks(blocks)
	require.Len(t, inputs, 4)

	// ui:order drives field order
	assert.Contains(t, inputs[0].BlockID, "input_service_")
	assert.Contains(t, inputs[1].BlockID, "input_replicas_")
	assert.Contains(t, inputs[2].BlockID, "input_dry_run_")
	assert.Contains(t, inputs[3].BlockID, "input_region_")

	// required marker on the label
	assert.Equal(t, "Service *", inputs[0].Label.Text)

	text, ok := inputs[0].Element.(*slack.PlainTextInputBlockElement)
	require.True(t, ok)
	assert.Equal(t, "action_service", text.ActionID)
	assert.False(t, text.Multiline)

	number, ok := inputs[1].Element.(*slack.NumberInputBlockElement)
	require.True(t, ok)
	assert.False(t, number.IsDecimalAllowed)
	assert.Equal(t, "1", number.MinValue)
	assert.Equal(t, "10", number.MaxValue)

	checkbox, ok := inputs[2].Element.(*slack.CheckboxGroupsBlockElement)
	require.True(t, ok)
	require.Len(t, checkbox.Options, 1)
	assert.Equal(t, "true", checkbox.Options[0].Value)

	sel, ok := inputs[3].Element.(*slack.SelectBlockElement)
	require.True(t, ok)
	assert.Equal(t, slack.OptTypeStatic, sel.Type)
	require.Len(t, sel.Options, 2)
	assert.Equal(t, "us-east", sel.Options[0].Value)
}

func TestConvertTextareaHeuristic(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}

	form := &Form{
		Schema: map[string]interface{}{
			"properties": map[string]interface{}{
				"notes": map[string]interface{}{"type": "string"},
			},
		},
		FormData: map[string]interface{}{"notes": string(long)},
	}

	inputs := inputBlocks(Convert(form, ""))
	require.Len(t, inputs, 1)

	text, ok := inputs[0].Element.(*slack.PlainTextInputBlockElement)
	require.True(t, ok)
	assert.True(t, text.Multiline, "values over 100 chars render as textarea")
	assert.Equal(t, string(long), text.InitialValue)
}

func TestConvertRadioWidget(t *testing.T) {
	form := &Form{
		Schema: map[string]interface{}{
			"properties": map[string]interface{}{
				"env": map[string]interface{}{
					"type":      "string",
					"enum":      []interface{}{"dev", "prod"},
					"enumNames": []interface{}{"Development", "Production"},
				},
			},
		},
		FormData: map[string]interface{}{"env": "prod"},
		UISchema: map[string]interface{}{
			"env": map[string]interface{}{"ui:widget": "radio"},
		},
	}

	inputs := inputBlocks(Convert(form, ""))
	require.Len(t, inputs, 1)

	radio, ok := inputs[0].Element.(*slack.RadioButtonsBlockElement)
	require.True(t, ok)
	require.Len(t, radio.Options, 2)
	assert.Equal(t, "Development", radio.Options[0].Text.Text)
	require.NotNil(t, radio.InitialOption)
	assert.Equal(t, "prod", radio.InitialOption.Value)
}

func TestConvertArrayOfEnums(t *testing.T) {
	form := &Form{
		Schema: map[string]interface{}{
			"properties": map[string]interface{}{
				"tags": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"enum": []interface{}{"a", "b", "c"},
					},
				},
			},
		},
		FormData: map[string]interface{}{"tags": []interface{}{"a", "c"}},
	}

	inputs := inputBlocks(Convert(form, ""))
	require.Len(t, inputs, 1)

	multi, ok := inputs[0].Element.(*slack.MultiSelectBlockElement)
	require.True(t, ok)
	require.Len(t, multi.Options, 3)
	require.Len(t, multi.InitialOptions, 2)
	assert.Equal(t, "a", multi.InitialOptions[0].Value)
	assert.Equal(t, "c", multi.InitialOptions[1].Value)
}

func TestConvertFreeFormArray(t *testing.T) {
	form := &Form{
		Schema: map[string]interface{}{
			"properties": map[string]interface{}{
				"hosts": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
			},
		},
		FormData: map[string]interface{}{"hosts": []interface{}{"h1", "h2"}},
	}

	inputs := inputBlocks(Convert(form, ""))
	require.Len(t, inputs, 1)

	text, ok := inputs[0].Element.(*slack.PlainTextInputBlockElement)
	require.True(t, ok)
	assert.Equal(t, "h1, h2", text.InitialValue)
	require.NotNil(t, text.Placeholder)
	assert.Equal(t, "Enter comma-separated values", text.Placeholder.Text)
}

func TestConvertObjectFlattens(t *testing.T) {
	form := &Form{
		Schema: map[string]interface{}{
			"properties": map[string]interface{}{
				"owner": map[string]interface{}{
					"type":  "object",
					"title": "Owner",
					"properties": map[string]interface{}{
						"email": map[string]interface{}{"type": "string"},
						"name":  map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}

	blocks := Convert(form, "")

	section, ok := blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*Owner*", section.Text.Text)

	inputs := inputBlocks(blocks)
	require.Len(t, inputs, 2)
	assert.Contains(t, inputs[0].BlockID, "input_owner.email_")
	assert.Contains(t, inputs[1].BlockID, "input_owner.name_")

	email, ok := inputs[0].Element.(*slack.PlainTextInputBlockElement)
	require.True(t, ok)
	assert.Equal(t, "action_owner.email", email.ActionID)
}

func TestSubmitButtonCarriesTaskID(t *testing.T) {
	blocks := Convert(&Form{Schema: map[string]interface{}{}}, "task-42")

	actions, ok := blocks[len(blocks)-1].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 1)

	button, ok := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, SubmitAction, button.ActionID)

	value := ParseSubmitValue(button.Value)
	assert.Equal(t, SubmitAction, value.Action)
	assert.Equal(t, "task-42", value.TaskID)
}
