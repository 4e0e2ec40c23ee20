package recommend

import "tool-advisor/internal/rules"

// Resolve selects the recommendations for req from table and picks the chosen tool.
//
// With a tool material the result is narrowed to that tool. Without one, the chosen
// tool is the first of the operation's recommended_tools followed by
// DefaultPreference that the workpiece has a recommendation for, falling back to the
// workpiece's first recommendation. An operation the workpiece does not define is
// ignored rather than rejected.
func Resolve(table *rules.Table, req Request) (Result, error) {
	if req.WorkpieceMaterial == "" {
		return Result{}, invalidWorkpiece()
	}
	wp, ok := table.Workpiece(req.WorkpieceMaterial)
	if !ok {
		return Result{}, invalidWorkpiece()
	}

	result := Result{
		Workpiece:       wp.Name,
		Operation:       req.Operation,
		Recommendations: wp.Recommendations,
		GeneralNotes:    wp.GeneralNotes,
	}
	if result.Operation == "" {
		result.Operation = UnspecifiedOperation
	}

	if req.Operation != "" {
		if op, ok := wp.Operations.Get(req.Operation); ok {
			result.OperationDetails = &op
		}
	}

	if req.ToolMaterial != "" {
		detail, ok := wp.Recommendations.Get(req.ToolMaterial)
		if !ok {
			return Result{}, unknownTool(req.ToolMaterial, wp.Name)
		}
		result.Recommendations = wp.Recommendations.Only(req.ToolMaterial)
		result.ChosenTool = req.ToolMaterial
		result.Chosen = detail
		return result, nil
	}

	var preferred []string
	if result.OperationDetails != nil {
		preferred = result.OperationDetails.RecommendedTools
	}
	for _, tool := range PreferenceOrder(preferred) {
		if detail, ok := wp.Recommendations.Get(tool); ok {
			result.ChosenTool = tool
			result.Chosen = detail
			return result, nil
		}
	}

	tool, detail, ok := wp.Recommendations.First()
	if !ok {
		return Result{}, noRecommendation(wp.Name)
	}
	result.ChosenTool = tool
	result.Chosen = detail
	return result, nil
}

// PreferenceOrder returns preferred followed by DefaultPreference, keeping only the
// first occurrence of each name.
func PreferenceOrder(preferred []string) []string {
	out := make([]string, 0, len(preferred)+len(DefaultPreference))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{preferred, DefaultPreference} {
		for _, tool := range list {
			if _, dup := seen[tool]; dup {
				continue
			}
			seen[tool] = struct{}{}
			out = append(out, tool)
		}
	}
	return out
}
