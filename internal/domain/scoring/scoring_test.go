package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/smarthire/internal/domain/extract"
	"github.com/okian/smarthire/internal/domain/model"
	scoring "github.com/okian/smarthire/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSkillScore(t *testing.T) {
	Convey("Given required skills and candidate skills", t, func() {
		Convey("Half coverage with proficiency 80 gives 62", func() {
			got := scoring.SkillScore(model.SkillSet{"python": 80, "java": 90}, []string{"Python", "SQL"}, scoring.NeutralCSV)
			So(got, ShouldEqual, 62)
		})

		Convey("Zero matches always give 30", func() {
			So(scoring.SkillScore(model.SkillSet{"Rust": 99}, []string{"Python"}, scoring.NeutralCSV), ShouldEqual, 30)
			So(scoring.SkillScore(model.SkillSet{"Rust": 70}, []string{"Python", "SQL"}, scoring.NeutralCSV), ShouldEqual, 30)
			So(scoring.SkillScore(model.SkillSet{}, []string{"Python"}, scoring.NeutralCSV), ShouldEqual, 30)
		})

		Convey("No requirements use the neutral value", func() {
			So(scoring.SkillScore(model.SkillSet{"Go": 90}, nil, scoring.NeutralCSV), ShouldEqual, 85)
			So(scoring.SkillScore(model.SkillSet{"Go": 90}, []string{}, scoring.NeutralRelevance), ShouldEqual, 50)
			So(scoring.SkillScore(model.SkillSet{"Go": 90}, []string{" ", ""}, scoring.NeutralCSV), ShouldEqual, 85)
		})

		Convey("Requirements match as case-insensitive substrings", func() {
			got := scoring.SkillScore(model.SkillSet{"PostgreSQL": 90}, []string{"sql"}, scoring.NeutralCSV)
			// coverage 100*0.6 + 90*0.4
			So(got, ShouldEqual, 96)
		})

		Convey("A requirement is credited at most once, first name in order wins", func() {
			skills := model.SkillSet{"SQL Server": 70, "MySQL": 100}
			// "MySQL" sorts before "SQL Server"
			So(scoring.SkillScore(skills, []string{"SQL"}, scoring.NeutralCSV), ShouldEqual, 100)
		})

		Convey("Order is lexical, not the order the skills were listed in", func() {
			skills := model.SkillSet{"JavaScript": 70, "Java": 90}
			// "Java" is credited even when "JavaScript" came first in the CV.
			So(scoring.SkillScore(skills, []string{"java"}, scoring.NeutralCSV), ShouldEqual, 96)
		})

		Convey("Full coverage stays within bounds", func() {
			skills := model.SkillSet{"Python": 100, "SQL": 100}
			So(scoring.SkillScore(skills, []string{"python", "sql"}, scoring.NeutralCSV), ShouldEqual, 100)
		})

		Convey("Out of range neutral values are clamped", func() {
			So(scoring.SkillScore(nil, nil, 140), ShouldEqual, 100)
			So(scoring.SkillScore(nil, nil, -3), ShouldEqual, 0)
		})
	})
}

func TestExperienceScore(t *testing.T) {
	entry := func(years string) model.ExperienceEntry {
		return model.ExperienceEntry{Company: "Acme", Role: "Dev", Years: years}
	}

	Convey("Given the years policy", t, func() {
		So(scoring.ExperienceScore(nil, scoring.PolicyYears), ShouldEqual, 70)
		So(scoring.ExperienceScore(model.Experience{entry("6")}, scoring.PolicyYears), ShouldEqual, 92)

		Convey("Tier boundaries follow the piecewise formula", func() {
			cases := map[string]int{
				"0":    70,
				"1":    75,
				"1.9":  79,
				"2":    80,
				"3.5":  84,
				"4.99": 88,
				"5":    90,
				"7.5":  95,
				"10":   100,
				"40":   100,
			}
			for years, want := range cases {
				So(scoring.ExperienceScore(model.Experience{entry(years)}, scoring.PolicyYears), ShouldEqual, want)
			}
		})

		Convey("Years are summed across entries", func() {
			exp := model.Experience{entry("1"), entry("2 years"), entry("1 year")}
			So(scoring.ExperienceScore(exp, scoring.PolicyYears), ShouldEqual, 86)
		})

		Convey("Non-numeric years contribute zero", func() {
			exp := model.Experience{entry("many"), entry("3")}
			So(scoring.ExperienceScore(exp, scoring.PolicyYears), ShouldEqual, 83)
			So(scoring.ExperienceScore(model.Experience{entry("n/a")}, scoring.PolicyYears), ShouldEqual, 70)
		})

		Convey("Negative years contribute zero instead of lowering the score", func() {
			So(scoring.ExperienceScore(model.Experience{entry("-3")}, scoring.PolicyYears), ShouldEqual, 70)
			So(scoring.ExperienceScore(model.Experience{entry("-3"), entry("3")}, scoring.PolicyYears), ShouldEqual, 83)
		})

		Convey("Huge totals cannot overflow", func() {
			So(scoring.ExperienceScore(model.Experience{entry("1e300")}, scoring.PolicyYears), ShouldEqual, 100)
		})
	})

	Convey("Given the count policy", t, func() {
		So(scoring.ExperienceScore(nil, scoring.PolicyCount), ShouldEqual, 40)
		So(scoring.ExperienceScore(model.Experience{entry("x"), entry("y")}, scoring.PolicyCount), ShouldEqual, 30)
		many := make(model.Experience, 8)
		So(scoring.ExperienceScore(many, scoring.PolicyCount), ShouldEqual, 100)
	})
}

func TestParseYears(t *testing.T) {
	Convey("Given years strings", t, func() {
		So(scoring.ParseYears("3"), ShouldEqual, 3)
		So(scoring.ParseYears("3.5"), ShouldEqual, 3.5)
		So(scoring.ParseYears(" 4 Years "), ShouldEqual, 4)
		So(scoring.ParseYears("1 year"), ShouldEqual, 1)
		So(scoring.ParseYears(""), ShouldEqual, 0)
		So(scoring.ParseYears("abc"), ShouldEqual, 0)
		So(scoring.ParseYears("-2"), ShouldEqual, 0)
		So(scoring.ParseYears("NaN"), ShouldEqual, 0)
		So(scoring.ParseYears("Inf"), ShouldEqual, 0)
	})
}

func TestCombineAndStatus(t *testing.T) {
	Convey("Given sub-scores", t, func() {
		So(scoring.Combine(62, 92, false), ShouldEqual, 71)
		So(scoring.Combine(100, 100, false), ShouldEqual, 100)
		So(scoring.Combine(0, 0, false), ShouldEqual, 0)

		Convey("The relevance bonus applies before the clamp", func() {
			So(scoring.Combine(62, 92, true), ShouldEqual, 81)
			So(scoring.Combine(100, 100, true), ShouldEqual, 100)
		})
	})

	Convey("Status boundaries are exact", t, func() {
		So(scoring.StatusFor(100), ShouldEqual, model.StatusShortlisted)
		So(scoring.StatusFor(90), ShouldEqual, model.StatusShortlisted)
		So(scoring.StatusFor(89), ShouldEqual, model.StatusReview)
		So(scoring.StatusFor(75), ShouldEqual, model.StatusReview)
		So(scoring.StatusFor(74), ShouldEqual, model.StatusPending)
		So(scoring.StatusFor(60), ShouldEqual, model.StatusPending)
		So(scoring.StatusFor(59), ShouldEqual, model.StatusRejected)
		So(scoring.StatusFor(0), ShouldEqual, model.StatusRejected)
	})
}

func TestMatchScorer(t *testing.T) {
	ctx := context.Background()
	backend := &model.Position{Title: "Backend Developer", RequiredSkills: model.RequiredSkills{"Python", "SQL"}}

	Convey("Given a default scorer", t, func() {
		s := scoring.NewMatchScorer()
		in := scoring.Input{
			Skills:           model.SkillSet{"python": 80, "java": 90},
			Experience:       model.Experience{{Company: "Acme", Role: "Dev", Years: "6"}},
			DeclaredPosition: "backend developer",
		}

		Convey("It combines the sub-scores and derives the status", func() {
			res, err := s.Score(ctx, in, backend)
			So(err, ShouldBeNil)
			So(res.SkillScore, ShouldEqual, 62)
			So(res.ExperienceScore, ShouldEqual, 92)
			So(res.Score, ShouldEqual, 71)
			So(res.Status, ShouldEqual, model.StatusPending)
		})

		Convey("A missing position is a hard failure", func() {
			_, err := s.Score(ctx, in, nil)
			So(err, ShouldEqual, scoring.ErrPositionRequired)
		})

		Convey("Scoring twice yields the same result", func() {
			a, _ := s.Score(ctx, in, backend)
			b, _ := s.Score(ctx, in, backend)
			So(a, ShouldResemble, b)
		})
	})

	Convey("Given a scorer with options", t, func() {
		s := scoring.NewMatchScorer(
			scoring.WithRelevanceBonus(true),
			scoring.WithExperiencePolicy(scoring.PolicyCount),
			scoring.WithNeutralSkillScore(scoring.NeutralRelevance),
		)

		Convey("The bonus needs a case-insensitive title match", func() {
			in := scoring.Input{Skills: model.SkillSet{"python": 80}, DeclaredPosition: " BACKEND developer "}
			res, err := s.Score(ctx, in, backend)
			So(err, ShouldBeNil)
			// skill 62, count policy with no entries 40: round(43.4+12)=55, +10
			So(res.Score, ShouldEqual, 65)

			in.DeclaredPosition = "Frontend Developer"
			res, _ = s.Score(ctx, in, backend)
			So(res.Score, ShouldEqual, 55)
		})

		Convey("The neutral value applies to positions without requirements", func() {
			res, err := s.Score(ctx, scoring.Input{}, &model.Position{Title: "Intern"})
			So(err, ShouldBeNil)
			So(res.SkillScore, ShouldEqual, 50)
			So(res.ExperienceScore, ShouldEqual, 40)
		})

		Convey("Unknown policies are ignored", func() {
			s := scoring.NewMatchScorer(scoring.WithExperiencePolicy("vibes"))
			res, _ := s.Score(ctx, scoring.Input{}, backend)
			So(res.ExperienceScore, ShouldEqual, 70)
		})
	})

	Convey("Scores stay in [0,100] for extracted input", t, func() {
		s := scoring.NewMatchScorer(scoring.WithRelevanceBonus(true))
		texts := []string{"", "Python", "Python, SQL, Flask, API", "Go, Rust, Haskell", "sql, python, flask, api, docker"}
		exps := []string{"", "A|B|1", "A|B|20; C|D|30", "A|B|x"}
		for _, st := range texts {
			for _, et := range exps {
				res, err := s.Score(ctx, scoring.Input{
					Skills:           extract.Skills(st),
					Experience:       extract.Experience(et),
					DeclaredPosition: backend.Title,
				}, backend)
				So(err, ShouldBeNil)
				So(res.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(res.Status, ShouldEqual, scoring.StatusFor(res.Score))
			}
		}
	})

	Convey("ParsePolicy accepts known names", t, func() {
		p, err := scoring.ParsePolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, scoring.PolicyYears)
		p, err = scoring.ParsePolicy("COUNT")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, scoring.PolicyCount)
		_, err = scoring.ParsePolicy("other")
		So(err, ShouldNotBeNil)
	})
}
