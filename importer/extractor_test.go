package importer

import (
	"strings"
	"testing"
)

func avanteRecords() []ParsedRecord {
	return []ParsedRecord{
		{VehicleName: "2026 아반떼", RowType: RowTypeTrim, Model: "2026 아반떼 가솔린", Trim: "스마트", BasePrice: 20000000},
		{VehicleName: "2026 아반떼", RowType: RowTypeTrim, Model: "2026 아반떼 가솔린", Trim: "모던", BasePrice: 22000000},
		{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "스마트", OptionGroup: "편의", OptionName: "선루프", Price: 1200000},
		{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "모던", OptionGroup: "안전", OptionName: "어라운드뷰", Price: 900000},
	}
}

func TestExtract_BuildsHierarchyFromTrimRows(t *testing.T) {
	entities := Extract(avanteRecords(), []string{"현대"})

	if len(entities.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", entities.Warnings)
	}
	if len(entities.VehicleLines) != 1 {
		t.Fatalf("expected 1 vehicle line, got %d", len(entities.VehicleLines))
	}
	line := entities.VehicleLines[0]
	if line.Name != "아반떼" {
		t.Fatalf("line name = %q, want 아반떼", line.Name)
	}
	if len(line.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(line.Models))
	}
	model := line.Models[0]
	if model.Name != "2026 아반떼 가솔린" || model.Year != 2026 {
		t.Fatalf("model = %+v", model)
	}
	if len(model.Trims) != 2 || model.Trims[0].Name != "스마트" || model.Trims[1].Name != "모던" {
		t.Fatalf("trims = %+v", model.Trims)
	}
	if model.Trims[0].BasePrice != 20000000 {
		t.Fatalf("trim base price = %d", model.Trims[0].BasePrice)
	}
	if len(model.Trims[0].Options) != 1 || model.Trims[0].Options[0].Name != "선루프" {
		t.Fatalf("스마트 options = %+v", model.Trims[0].Options)
	}
	if len(model.Trims[1].Options) != 1 || model.Trims[1].Options[0].Name != "어라운드뷰" {
		t.Fatalf("모던 options = %+v", model.Trims[1].Options)
	}
}

func TestExtract_UnknownTrimReferenceWarnsAndDiscards(t *testing.T) {
	records := append(avanteRecords(), ParsedRecord{
		VehicleName: "2026 아반떼", RowType: RowTypeOption,
		Model: "2026 아반떼 가솔린", Trim: "스포츠",
		OptionGroup: "성능", OptionName: "스포츠 패키지", Price: 2500000,
	})
	entities := Extract(records, []string{"현대"})

	if len(entities.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", entities.Warnings)
	}
	if !strings.Contains(entities.Warnings[0], "UnknownTrimReference") ||
		!strings.Contains(entities.Warnings[0], "스포츠") {
		t.Fatalf("warning = %q", entities.Warnings[0])
	}
	for _, trim := range entities.VehicleLines[0].Models[0].Trims {
		for _, option := range trim.Options {
			if option.Name == "스포츠 패키지" {
				t.Fatal("discarded option was attached anyway")
			}
		}
	}
}

func TestExtract_OptionOnlySheetYieldsNoHierarchy(t *testing.T) {
	records := []ParsedRecord{
		{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "스마트", OptionName: "선루프", Price: 1200000},
		{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "모던", OptionName: "어라운드뷰", Price: 900000},
	}
	entities := Extract(records, nil)

	if len(entities.VehicleLines) != 0 {
		t.Fatalf("expected no vehicle lines, got %+v", entities.VehicleLines)
	}
	if len(entities.Warnings) != 2 {
		t.Fatalf("expected every option discarded with a warning, got %v", entities.Warnings)
	}
}

func TestExtract_KeepsDuplicateOptionsInInputOrder(t *testing.T) {
	records := avanteRecords()
	records = append(records,
		ParsedRecord{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "스마트", OptionGroup: "외관", OptionName: "블랙 휠", Price: 400000},
		ParsedRecord{VehicleName: "2026 아반떼", RowType: RowTypeOption, Model: "2026 아반떼 가솔린", Trim: "스마트", OptionGroup: "편의", OptionName: "선루프", Price: 1200000},
	)
	entities := Extract(records, []string{"현대"})

	options := entities.VehicleLines[0].Models[0].Trims[0].Options
	if len(options) != 3 {
		t.Fatalf("expected 3 options incl. the duplicate, got %+v", options)
	}
	if options[0].Name != "선루프" || options[1].Name != "블랙 휠" || options[2].Name != "선루프" {
		t.Fatalf("option order not preserved: %+v", options)
	}
	if len(entities.Warnings) != 1 {
		t.Fatalf("expected one warning for the repeated option, got %v", entities.Warnings)
	}
	if !strings.Contains(entities.Warnings[0], "duplicate option") ||
		!strings.Contains(entities.Warnings[0], "선루프") {
		t.Fatalf("warning = %q", entities.Warnings[0])
	}
}

func TestExtract_SkipsTrimRowsMissingModelOrTrim(t *testing.T) {
	records := []ParsedRecord{
		{VehicleName: "2026 아반떼", RowType: RowTypeTrim, Model: "", Trim: "스마트"},
		{VehicleName: "2026 아반떼", RowType: RowTypeTrim, Model: "2026 아반떼 가솔린", Trim: ""},
	}
	entities := Extract(records, nil)
	if len(entities.VehicleLines) != 0 {
		t.Fatalf("expected incomplete trim rows to be skipped, got %+v", entities.VehicleLines)
	}
}

func TestExtract_RepeatedTrimRowsStayUnique(t *testing.T) {
	records := append(avanteRecords(), avanteRecords()...)
	entities := Extract(records, []string{"현대"})

	model := entities.VehicleLines[0].Models[0]
	if len(model.Trims) != 2 {
		t.Fatalf("expected trims deduplicated, got %+v", model.Trims)
	}
	// options keep duplicates on purpose, one per input row
	if len(model.Trims[0].Options) != 2 || len(model.Trims[1].Options) != 2 {
		t.Fatalf("options = %+v / %+v", model.Trims[0].Options, model.Trims[1].Options)
	}
	if len(entities.Warnings) != 2 {
		t.Fatalf("expected a warning per repeated option, got %v", entities.Warnings)
	}
	for _, warning := range entities.Warnings {
		if !strings.Contains(warning, "duplicate option") {
			t.Fatalf("warning = %q", warning)
		}
	}
}
