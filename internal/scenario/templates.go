package scenario

import "github.com/raphaelgruber/replan-rag/internal/models"

// Template is a scenario with the phrases that characterise it. A query is
// scored against a template by its best-matching phrase.
type Template struct {
	Scenario models.Scenario
	Phrases  []string
}

// DefaultTemplates is the built-in template bank. Order matters: on equal
// similarity the earlier template wins.
var DefaultTemplates = []Template{
	{models.ScenarioStackReplacementTop, []string{
		"top layer wrong object replacement",
		"incorrect top object simple replacement",
		"wrong object at top position direct access",
		"top layer object mismatch direct replacement",
		"replace top object no blocking layers",
		"simple top layer correction",
	}},
	{models.ScenarioStackReplacementMiddle, []string{
		"middle layer wrong object replacement",
		"incorrect middle object blocked access",
		"wrong object at middle position clear above first",
		"middle layer object mismatch physical constraint",
		"replace middle object clear top first",
		"blocked middle layer access constraint",
	}},
	{models.ScenarioStackReplacementBottom, []string{
		"bottom layer wrong object replacement",
		"incorrect bottom object clear entire stack",
		"wrong object at bottom position full reconstruction",
		"bottom layer object mismatch clear all above",
		"replace bottom object clear entire stack",
		"foundation layer replacement complete rebuild",
	}},
	{models.ScenarioStackReplacementMultiple, []string{
		"multiple layers wrong objects replacement",
		"complex multi-position object correction",
		"several wrong objects stack reconstruction",
		"multiple layer mismatch complete rebuild",
	}},
	{models.ScenarioStackedBuilding, []string{
		"stacked arrangement vertical tower building",
		"all objects scattered need stacking bottom up",
		"partial stack need completion",
		"different relationship need stacking",
		"bottom middle top stacking sequence",
		"stack extension add new layer",
	}},
	{models.ScenarioSingleObjectPlacement, []string{
		"single object stack placement",
		"single object needs update",
		"single object already correct",
	}},
	{models.ScenarioSeparatedArrangement, []string{
		"separated_left_right arrangement horizontal separation",
		"separated_front_back arrangement horizontal separation",
		"all objects scattered need separation",
		"partial separation need completion",
		"different relationship need separation",
	}},
	{models.ScenarioObjectReordering, []string{
		"wrong object replacement correction",
		"object mismatch position needs fixing",
		"incorrect object needs replacement",
		"object mismatch clear and rebuild",
	}},
	{models.ScenarioBufferManagement, []string{
		"buffer storage temporary object placement",
		"temporary storage during reconstruction",
		"buffer slots for object rearrangement",
	}},
	{models.ScenarioLegacyFormat, []string{
		"legacy format object reordering",
		"coordinate based cube planning",
		"all cubes scattered on table",
		"only bottom layer present",
		"multiple layers present",
	}},
	{models.ScenarioAlreadyCorrect, []string{
		"correct arrangement no changes",
		"target already achieved no action",
		"perfect configuration complete",
	}},
}
