package importer

import "fmt"

// Extract derives the per-brand hierarchy from parsed records: vehicle lines,
// their models and trims from TRIM rows, then the trims' options from OPTION
// rows. Containers preserve first-seen order; option lists additionally
// preserve input order and keep duplicates, with a warning per repeated
// occurrence of the same option name on one trim.
func Extract(records []ParsedRecord, brandPrefixes []string) *BrandEntities {
	result := &BrandEntities{}

	lineIndex := map[string]int{}
	modelIndex := map[string]int{} // "line|model"
	trimIndex := map[string]int{}  // "line|model|trim"

	// first pass: vehicle lines, models and trims from TRIM rows
	for _, record := range records {
		if record.RowType != RowTypeTrim || record.Model == "" || record.Trim == "" {
			continue
		}

		lineName := DeriveVehicleLineName(record.VehicleName, brandPrefixes)
		lineIdx, ok := lineIndex[lineName]
		if !ok {
			result.VehicleLines = append(result.VehicleLines, LineEntity{Name: lineName})
			lineIdx = len(result.VehicleLines) - 1
			lineIndex[lineName] = lineIdx
		}

		modelKey := lineName + "|" + record.Model
		modelIdx, ok := modelIndex[modelKey]
		if !ok {
			models := &result.VehicleLines[lineIdx].Models
			*models = append(*models, ModelEntity{Name: record.Model, Year: VehicleYear(record.VehicleName)})
			modelIdx = len(*models) - 1
			modelIndex[modelKey] = modelIdx
		}

		trimKey := modelKey + "|" + record.Trim
		if _, ok := trimIndex[trimKey]; ok {
			continue
		}
		trims := &result.VehicleLines[lineIdx].Models[modelIdx].Trims
		*trims = append(*trims, TrimEntity{Name: record.Trim, BasePrice: record.BasePrice})
		trimIndex[trimKey] = len(*trims) - 1
	}

	// second pass: options attach to the (model, trim) pair they reference;
	// a missing trim discards the option with a warning instead of guessing
	optionSeen := map[string]bool{}
	for _, record := range records {
		if record.RowType != RowTypeOption {
			continue
		}
		lineName := DeriveVehicleLineName(record.VehicleName, brandPrefixes)
		modelKey := lineName + "|" + record.Model
		trimKey := modelKey + "|" + record.Trim

		trimIdx, ok := trimIndex[trimKey]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"UnknownTrimReference: option %q references trim %q on model %q",
				record.OptionName, record.Trim, record.Model))
			continue
		}
		optionKey := trimKey + "|" + record.OptionName
		if optionSeen[optionKey] {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"duplicate option %q on trim %q of model %q",
				record.OptionName, record.Trim, record.Model))
		}
		optionSeen[optionKey] = true
		lineIdx := lineIndex[lineName]
		modelIdx := modelIndex[modelKey]
		options := &result.VehicleLines[lineIdx].Models[modelIdx].Trims[trimIdx].Options
		*options = append(*options, OptionEntity{
			Name:  record.OptionName,
			Group: record.OptionGroup,
			Price: record.Price,
		})
	}

	return result
}
