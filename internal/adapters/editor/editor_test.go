package editor_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/comborank/internal/adapters/editor"
	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fail  int
}

func (r *recorder) run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.fail > 0 {
		r.fail--
		return errors.New("editor busy")
	}
	return nil
}

func TestCoordinator(t *testing.T) {
	Convey("Given coordinator commands with placeholders", t, func() {
		rec := &recorder{}
		c, err := editor.New(
			editor.WithCloseCommand(`close-it --name "{name}" '{path}'`),
			editor.WithReopenCommand(`open-it {path}`),
			editor.WithRunner(rec.run),
			editor.WithSettleDelay(0),
			editor.WithRetryDelay(0),
		)
		So(err, ShouldBeNil)
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "my draws.xlsx")

		Convey("When releasing", func() {
			c.Release(ctx, path)

			Convey("Then placeholders are expanded per argument", func() {
				So(rec.calls, ShouldResemble, [][]string{{"close-it", "--name", "my draws.xlsx", path}})
			})
		})

		Convey("When the editor fails twice before succeeding", func() {
			rec.fail = 2
			c.Reopen(ctx, path)

			Convey("Then the command is retried", func() {
				So(len(rec.calls), ShouldEqual, 3)
				So(rec.calls[2], ShouldResemble, []string{"open-it", path})
			})
		})

		Convey("When the editor keeps failing", func() {
			rec.fail = 10
			start := time.Now()
			c.Release(ctx, path)

			Convey("Then attempts stop and the failure is swallowed", func() {
				So(len(rec.calls), ShouldEqual, 3)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			})
		})
	})

	Convey("Given a disabled coordinator", t, func() {
		rec := &recorder{}
		c, err := editor.New(
			editor.WithEnabled(false),
			editor.WithCloseCommand("close-it"),
			editor.WithRunner(rec.run),
		)
		So(err, ShouldBeNil)

		Convey("Then nothing runs", func() {
			c.Release(context.Background(), "x.xlsx")
			c.Reopen(context.Background(), "x.xlsx")
			So(rec.calls, ShouldBeEmpty)
		})
	})

	Convey("Given an unterminated quote", t, func() {
		_, err := editor.New(editor.WithCloseCommand(`close-it "oops`))

		Convey("Then construction fails", func() {
			So(errors.Is(err, editor.ErrInvalidCommand), ShouldBeTrue)
		})
	})
}
