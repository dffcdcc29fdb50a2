package dataset

import (
	"math"
	"math/rand"
	"strconv"
)

// SampleHeader is the column layout of the xAPI educational dataset used to
// train the dropout model, label last.
var SampleHeader = []string{
	"gender", "NationalITy", "PlaceofBirth", "StageID", "GradeID", "SectionID",
	"Topic", "Semester", "Relation", "raisedhands", "VisITedResources",
	"AnnouncementsView", "Discussion", "ParentAnsweringSurvey",
	"ParentschoolSatisfaction", "StudentAbsenceDays", "Class",
}

var (
	sampleNationalities = []string{"KW", "Jordan", "Iraq", "lebanon", "SaudiArabia", "USA", "Egypt"}
	sampleStages        = []string{"lowerlevel", "MiddleSchool", "HighSchool"}
	sampleGrades        = []string{"G-02", "G-04", "G-06", "G-07", "G-08", "G-10", "G-12"}
	sampleSections      = []string{"A", "B", "C"}
	sampleTopics        = []string{"IT", "Math", "Arabic", "Science", "English", "Quran", "Spanish", "French", "History", "Biology", "Chemistry", "Geology"}
)

// GenerateStudents builds a synthetic table shaped like the xAPI dataset.
// Exactly round(n*lowShare) rows carry Class "L"; those students engage
// less and miss more days, so the label is learnable. The same seed always
// yields the same table.
func GenerateStudents(n int, lowShare float64, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))
	nLow := int(math.Round(float64(n) * lowShare))

	classes := make([]string, n)
	for i := range classes {
		switch {
		case i < nLow:
			classes[i] = "L"
		case rng.Intn(2) == 0:
			classes[i] = "M"
		default:
			classes[i] = "H"
		}
	}
	rng.Shuffle(n, func(i, j int) { classes[i], classes[j] = classes[j], classes[i] })

	rows := make([][]string, n)
	for i, class := range classes {
		engagement := 70.0
		absence := "Under-7"
		survey := "Yes"
		switch class {
		case "L":
			engagement = 20
			if rng.Float64() < 0.8 {
				absence = "Above-7"
			}
			if rng.Float64() < 0.7 {
				survey = "No"
			}
		case "M":
			engagement = 50
			if rng.Float64() < 0.3 {
				absence = "Above-7"
			}
		}

		nat := pick(rng, sampleNationalities)
		rows[i] = []string{
			pick(rng, []string{"M", "F"}),
			nat,
			nat,
			pick(rng, sampleStages),
			pick(rng, sampleGrades),
			pick(rng, sampleSections),
			pick(rng, sampleTopics),
			pick(rng, []string{"F", "S"}),
			pick(rng, []string{"Father", "Mum"}),
			activity(rng, engagement),
			activity(rng, engagement),
			activity(rng, engagement*0.8),
			activity(rng, engagement*0.7),
			survey,
			pick(rng, []string{"Good", "Bad"}),
			absence,
			class,
		}
	}

	table, _ := NewTable(append([]string(nil), SampleHeader...), rows)
	return table
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

// activity draws a 0-100 count around mean.
func activity(rng *rand.Rand, mean float64) string {
	v := int(math.Round(mean + rng.NormFloat64()*15))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return strconv.Itoa(v)
}
