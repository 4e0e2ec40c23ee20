package recommend

import "tool-advisor/internal/rules"

// UnspecifiedOperation is echoed when the caller names no operation.
const UnspecifiedOperation = "unspecified"

// DefaultPreference is the tool order used when no operation supplies one.
var DefaultPreference = []string{"Carbide", "HSS", "Ceramic", "CBN"}

// Request carries the caller's inputs. Empty strings mean "not given".
type Request struct {
	WorkpieceMaterial string `json:"workpiece_material" form:"workpiece_material"`
	ToolMaterial      string `json:"tool_material" form:"tool_material"`
	Operation         string `json:"operation" form:"operation"`
}

// Result is the resolved recommendation.
type Result struct {
	Workpiece        string           `json:"workpiece"`
	Operation        string           `json:"operation"`
	Recommendations  rules.ToolSet    `json:"recommendations"`
	OperationDetails *rules.Operation `json:"operation_details,omitempty"`
	GeneralNotes     string           `json:"general_notes"`
	ChosenTool       string           `json:"chosen_tool,omitempty"`
	Chosen           rules.Detail     `json:"chosen,omitempty"`
}
