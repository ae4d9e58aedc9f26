package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/study-groups-bot/internal/models"
	"github.com/Spok95/study-groups-bot/internal/session"
)

func evalState() session.State {
	r4, r5 := 4, 5
	st := session.Initial()
	st.Groups = []models.Group{
		{ID: 1, Name: "Python Pals", Members: []string{"Ana Lee", "Bo"}, MatchingSkills: []string{"python"},
			Feedback: []models.Feedback{{ID: 1, Content: "ok", Rating: &r4}, {ID: 2, Content: "great", Rating: &r5}, {ID: 3, Content: "no rating"}}},
		{ID: 2, Name: "JS Crew", Members: []string{"Cy"}},
	}
	st.SkillDistribution = []models.SkillCount{{Skill: "python", Count: 3}, {Skill: "java", Count: 1}}
	st.SkillStats = models.SkillStats{Grouped: 3, Ungrouped: 1}
	return st
}

func TestBuildEvaluationWorkbook(t *testing.T) {
	wb, err := BuildEvaluationWorkbook(evalState())
	if err != nil {
		t.Fatal(err)
	}
	f := wb.File

	if got := f.GetSheetList(); len(got) != 3 || got[0] != SheetGroups || got[1] != SheetSkills || got[2] != SheetStats {
		t.Fatalf("sheets = %v", got)
	}

	cells := map[string]string{
		SheetGroups + "!B2": "Python Pals",
		SheetGroups + "!C2": "Ana Lee, Bo",
		SheetGroups + "!G2": "3",
		SheetGroups + "!H2": "4.5",
		SheetGroups + "!H3": "",
		SheetSkills + "!A1": "Skill",
		SheetSkills + "!A2": "python",
		SheetSkills + "!B3": "1",
		SheetStats + "!B2":  "3",
		SheetStats + "!B3":  "1",
	}
	for ref, want := range cells {
		sheet, cell := splitRef(ref)
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}

	data, err := wb.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook must reopen: %v", err)
	}
	_ = reopened.Close()
}

func TestBuildEvaluationWorkbookEmpty(t *testing.T) {
	wb, err := BuildEvaluationWorkbook(session.Initial())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := wb.File.GetRows(SheetSkills)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("only the header expected, got %v", rows)
	}
}

func TestEvaluationFilename(t *testing.T) {
	got := EvaluationFilename(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	if got != "study-groups evaluation 2026-10-16.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestColName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ"} {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, want %q", n, got, want)
		}
	}
}

func splitRef(ref string) (string, string) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '!' {
			return ref[:i], ref[i+1:]
		}
	}
	return "", ref
}
