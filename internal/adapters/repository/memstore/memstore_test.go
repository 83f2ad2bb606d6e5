package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func candidate(name, position string, score int, status model.Status) model.Candidate {
	return model.Candidate{
		Name:     name,
		Email:    name + "@example.com",
		Position: position,
		Skills:   model.SkillSet{"Go": 80},
		Score:    score,
		Status:   status,
	}
}

func TestCandidates(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store", t, func() {
		s := New(WithClock(fixedClock()))

		Convey("Created candidates get sequential ids and a timestamp", func() {
			a, err := s.CreateCandidate(ctx, candidate("ada", "Backend Developer", 71, model.StatusPending))
			So(err, ShouldBeNil)
			So(a.ID, ShouldEqual, 1)
			So(a.CreatedAt.IsZero(), ShouldBeFalse)

			b, _ := s.CreateCandidate(ctx, candidate("bob", "Backend Developer", 90, model.StatusShortlisted))
			So(b.ID, ShouldEqual, 2)

			got, err := s.GetCandidate(ctx, 1)
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "ada")
		})

		Convey("Unknown ids are not found", func() {
			_, err := s.GetCandidate(ctx, 42)
			So(err, ShouldEqual, repository.ErrNotFound)
			_, err = s.UpdateCandidateStatus(ctx, 42, model.StatusReview)
			So(err, ShouldEqual, repository.ErrNotFound)
			_, err = s.RankCandidate(ctx, 42)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Listings are ordered by score desc then id asc", func() {
			for _, c := range []model.Candidate{
				candidate("a", "Backend Developer", 60, model.StatusPending),
				candidate("b", "Data Scientist", 95, model.StatusShortlisted),
				candidate("c", "Backend Developer", 60, model.StatusPending),
				candidate("d", "backend developer", 80, model.StatusReview),
			} {
				_, err := s.CreateCandidate(ctx, c)
				So(err, ShouldBeNil)
			}

			all, err := s.ListCandidates(ctx, repository.CandidateFilter{})
			So(err, ShouldBeNil)
			names := []string{}
			for _, c := range all {
				names = append(names, c.Name)
			}
			So(names, ShouldResemble, []string{"b", "d", "a", "c"})

			Convey("Filters match position case-insensitively and status exactly", func() {
				back, _ := s.ListCandidates(ctx, repository.CandidateFilter{Position: "BACKEND DEVELOPER"})
				So(back, ShouldHaveLength, 3)
				pending, _ := s.ListCandidates(ctx, repository.CandidateFilter{Status: model.StatusPending})
				So(pending, ShouldHaveLength, 2)

				n, _ := s.CountCandidates(ctx, repository.CandidateFilter{Position: "Backend Developer", Status: model.StatusPending})
				So(n, ShouldEqual, 2)
				n, _ = s.CountCandidates(ctx, repository.CandidateFilter{})
				So(n, ShouldEqual, 4)
			})

			Convey("Limit truncates after filtering", func() {
				top, _ := s.ListCandidates(ctx, repository.CandidateFilter{Position: "backend developer", Limit: 2})
				So(top, ShouldHaveLength, 2)
				So(top[0].Name, ShouldEqual, "d")
				So(top[1].Name, ShouldEqual, "a")
			})

			Convey("Rank follows the listing order", func() {
				r, err := s.RankCandidate(ctx, 2)
				So(err, ShouldBeNil)
				So(r, ShouldEqual, 1)
				r, _ = s.RankCandidate(ctx, 3)
				So(r, ShouldEqual, 4)
			})
		})

		Convey("Status and notes updates keep the score order", func() {
			c, _ := s.CreateCandidate(ctx, candidate("ada", "Backend Developer", 71, model.StatusPending))
			updated, err := s.UpdateCandidateStatus(ctx, c.ID, model.StatusShortlisted)
			So(err, ShouldBeNil)
			So(updated.Status, ShouldEqual, model.StatusShortlisted)
			So(updated.Score, ShouldEqual, 71)

			updated, err = s.UpdateCandidateNotes(ctx, c.ID, "call back")
			So(err, ShouldBeNil)
			So(updated.Notes, ShouldEqual, "call back")
			So(updated.Status, ShouldEqual, model.StatusShortlisted)
		})

		Convey("Returned values do not alias stored state", func() {
			c, _ := s.CreateCandidate(ctx, candidate("ada", "Backend Developer", 71, model.StatusPending))
			c.Skills["Rust"] = 99
			got, _ := s.GetCandidate(ctx, c.ID)
			So(got.Skills, ShouldNotContainKey, "Rust")
		})
	})
}

func TestTreapOrderingAgainstSort(t *testing.T) {
	Convey("Given many random scores", t, func() {
		ctx := context.Background()
		s := New()
		rng := rand.New(rand.NewSource(7))
		type pair struct {
			id    int64
			score int
		}
		var want []pair
		for i := 0; i < 500; i++ {
			c, _ := s.CreateCandidate(ctx, candidate(fmt.Sprintf("c%d", i), "Backend Developer", rng.Intn(101), model.StatusPending))
			want = append(want, pair{c.ID, c.Score})
		}
		sort.Slice(want, func(i, j int) bool {
			if want[i].score != want[j].score {
				return want[i].score > want[j].score
			}
			return want[i].id < want[j].id
		})

		got, _ := s.ListCandidates(ctx, repository.CandidateFilter{})
		So(got, ShouldHaveLength, len(want))
		for i := range want {
			So(got[i].ID, ShouldEqual, want[i].id)
		}

		r, _ := s.RankCandidate(ctx, want[250].id)
		So(r, ShouldEqual, 251)
		So(nsize(s.root), ShouldEqual, 500)
	})

	Convey("Deleting nodes keeps sizes consistent", t, func() {
		var root *node
		for i := int64(1); i <= 50; i++ {
			root = insert(root, i, int(i%7))
		}
		for i := int64(1); i <= 50; i += 2 {
			root = deleteNode(root, i, int(i%7))
		}
		So(nsize(root), ShouldEqual, 25)
		seen := 0
		walk(root, func(id int64) bool {
			So(id%2, ShouldEqual, 0)
			seen++
			return true
		})
		So(seen, ShouldEqual, 25)
	})
}

func TestPositions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store with positions", t, func() {
		s := New()
		for _, p := range model.DefaultPositions() {
			_, err := s.CreatePosition(ctx, p)
			So(err, ShouldBeNil)
		}

		Convey("Titles resolve case-insensitively", func() {
			p, err := s.GetPositionByTitle(ctx, "  backend DEVELOPER ")
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, 2)
			So(p.RequiredSkills, ShouldResemble, model.RequiredSkills{"Python", "Flask", "SQL", "API"})

			_, err = s.GetPositionByTitle(ctx, "Astronaut")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Duplicate titles are rejected", func() {
			_, err := s.CreatePosition(ctx, model.Position{Title: "data scientist"})
			So(err, ShouldEqual, repository.ErrDuplicate)
		})

		Convey("Updates can rename and deactivate", func() {
			p, _ := s.GetPosition(ctx, 1)
			p.Title = "UI Engineer"
			p.Active = false
			updated, err := s.UpdatePosition(ctx, p)
			So(err, ShouldBeNil)
			So(updated.CreatedAt, ShouldEqual, p.CreatedAt)

			_, err = s.GetPositionByTitle(ctx, "Frontend Developer")
			So(err, ShouldEqual, repository.ErrNotFound)
			_, err = s.GetPositionByTitle(ctx, "ui engineer")
			So(err, ShouldBeNil)

			active, _ := s.ListPositions(ctx, true)
			So(active, ShouldHaveLength, 2)
			all, _ := s.ListPositions(ctx, false)
			So(all, ShouldHaveLength, 3)
			So(all[0].ID, ShouldEqual, 1)
		})

		Convey("Renaming onto another title conflicts", func() {
			p, _ := s.GetPosition(ctx, 1)
			p.Title = "Backend Developer"
			_, err := s.UpdatePosition(ctx, p)
			So(err, ShouldEqual, repository.ErrDuplicate)
		})

		Convey("Updating an unknown position fails", func() {
			_, err := s.UpdatePosition(ctx, model.Position{ID: 99, Title: "X"})
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestUploadsAndNotifications(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store", t, func() {
		s := New(WithClock(fixedClock()))

		Convey("LastUpload is not found before any upload", func() {
			_, err := s.LastUpload(ctx)
			So(err, ShouldEqual, repository.ErrNotFound)
			list, err := s.ListUploads(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("Uploads are listed newest first", func() {
			_, _ = s.CreateUpload(ctx, model.Upload{Filename: "a.csv"})
			_, _ = s.CreateUpload(ctx, model.Upload{Filename: "b.csv"})
			list, _ := s.ListUploads(ctx)
			So(list[0].Filename, ShouldEqual, "b.csv")
			last, err := s.LastUpload(ctx)
			So(err, ShouldBeNil)
			So(last.Filename, ShouldEqual, "b.csv")
		})

		Convey("Notifications can be filtered and marked read", func() {
			first, _ := s.CreateNotification(ctx, model.Notification{Message: "one", Type: model.NotificationInfo})
			_, _ = s.CreateNotification(ctx, model.Notification{Message: "two", Type: model.NotificationInfo})

			So(s.MarkNotificationRead(ctx, first.ID), ShouldBeNil)
			unread, _ := s.ListNotifications(ctx, true)
			So(unread, ShouldHaveLength, 1)
			So(unread[0].Message, ShouldEqual, "two")

			all, _ := s.ListNotifications(ctx, false)
			So(all[0].Message, ShouldEqual, "two")
			So(all[1].Read, ShouldBeTrue)

			So(s.MarkNotificationRead(ctx, 99), ShouldEqual, repository.ErrNotFound)
		})

		Convey("Ping and Close succeed", func() {
			So(s.Ping(ctx), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}

func TestConcurrentWrites(t *testing.T) {
	Convey("Concurrent creates all land", t, func() {
		ctx := context.Background()
		s := New()
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_, _ = s.CreateCandidate(ctx, candidate(fmt.Sprintf("g%d-%d", g, i), "Backend Developer", (g*50+i)%101, model.StatusPending))
				}
			}(g)
		}
		wg.Wait()
		n, _ := s.CountCandidates(ctx, repository.CandidateFilter{})
		So(n, ShouldEqual, 400)
		So(nsize(s.root), ShouldEqual, 400)
	})
}
