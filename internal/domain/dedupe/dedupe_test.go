package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/chow-chow/rubik/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Names(), ShouldBeEmpty)
			})
		})

		Convey("When creating a deduper with a capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(100))

			Convey("Then it should still be empty", func() {
				So(d.Names(), ShouldBeEmpty)
			})
		})

		Convey("When recording names", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the name is new", func() {
				seen := d.SeenAndRecord(ctx, "Dr. Juan Pérez")

				Convey("Then it should return false and record the name", func() {
					So(seen, ShouldBeFalse)
					So(d.Names(), ShouldHaveLength, 1)
				})
			})

			Convey("And the name was already seen", func() {
				d.SeenAndRecord(ctx, "Dr. Juan Pérez")
				seen := d.SeenAndRecord(ctx, "Dr. Juan Pérez")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Names(), ShouldHaveLength, 1)
				})
			})

			Convey("And names repeat across groups", func() {
				for _, name := range []string{"B", "A", "B", "C", "A"} {
					d.SeenAndRecord(ctx, name)
				}

				Convey("Then names come back once in first-seen order", func() {
					So(d.Names(), ShouldResemble, []string{"B", "A", "C"})
					So(d.Names(), ShouldHaveLength, 3)
				})
			})
		})

		Convey("When recording concurrently", func() {
			d := dedupe.NewInMemoryDeduper()
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("name-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then every name is recorded exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Names(), ShouldHaveLength, 100)
			})
		})
	})
}
