package aggregate

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendResultGrowsFromObjectToArray(t *testing.T) {
	slot := &Slot{}
	require.True(t, slot.Empty())

	got, err := AppendResult(slot, map[string]int{"a": 1})
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, got)

	got, err = AppendResult(slot, json.RawMessage(`{"b":2}`))
	require.NoError(t, err)
	require.Equal(t, `[{"a":1},{"b":2}]`, got)

	got, err = AppendResult(slot, `{"c":3}`)
	require.NoError(t, err)
	require.Equal(t, `[{"a":1},{"b":2},{"c":3}]`, got)
	require.Equal(t, got, slot.Content())
}

func TestAppendKeepsDuplicates(t *testing.T) {
	slot := NewSlot(`{"name":"Publish Configuration"}`)
	row := `{"name":"Publish Configuration"}`
	_, err := AppendResult(slot, row)
	require.NoError(t, err)
	_, err = AppendResult(slot, row)
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(slot.Content()), &rows))
	require.Len(t, rows, 3)
}

func TestAppendOnlyStripsOuterBracket(t *testing.T) {
	current := `[{"files":["a","b"]}]`
	require.Equal(t, `[{"files":["a","b"]},{"x":1}]`, Append(current, `{"x":1}`))
	require.Equal(t, `[{"a":1},{"x":1}]`, Append(" {\"a\":1}\n", `{"x":1}`))
}

func TestAppendResultRejectsNonObjects(t *testing.T) {
	slot := NewSlot(`{"a":1}`)
	for _, bad := range []any{`[1]`, `"text"`, `{"broken":`, 42} {
		_, err := AppendResult(slot, bad)
		require.Error(t, err, "%v", bad)
	}
	require.Equal(t, `{"a":1}`, slot.Content())

	_, err := AppendResult(slot, func() {})
	require.Error(t, err)
}

func TestAppendResultMonotonicGrowth(t *testing.T) {
	for n := 1; n <= 5; n++ {
		slot := &Slot{}
		for i := 0; i < n; i++ {
			_, err := AppendResult(slot, map[string]int{"i": i})
			require.NoError(t, err)
		}
		if n == 1 {
			var row map[string]int
			require.NoError(t, json.Unmarshal([]byte(slot.Content()), &row))
			require.Equal(t, 0, row["i"])
			continue
		}
		var rows []map[string]int
		require.NoError(t, json.Unmarshal([]byte(slot.Content()), &rows))
		require.Len(t, rows, n)
		for i, r := range rows {
			require.Equal(t, i, r["i"])
		}
	}
}

func TestCollectorMatchesSlotShape(t *testing.T) {
	c := NewCollector()
	require.Empty(t, c.JSON())

	require.NoError(t, c.Add(map[string]int{"a": 1}))
	require.Equal(t, `{"a":1}`, c.JSON())

	require.NoError(t, c.Add(map[string]int{"b": 2}))
	require.Equal(t, `[{"a":1},{"b":2}]`, c.Reset())
	require.Zero(t, c.Len())
	require.Error(t, c.Add(`[]`))
}

func TestCollectorConcurrentAdds(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, c.Add(fmt.Sprintf(`{"i":%d}`, i)))
		}(i)
	}
	wg.Wait()

	var rows []map[string]int
	require.NoError(t, json.Unmarshal([]byte(c.JSON()), &rows))
	require.Len(t, rows, 50)
	seen := map[int]bool{}
	for _, r := range rows {
		seen[r["i"]] = true
	}
	require.Len(t, seen, 50)
}

func rowCount(t *testing.T, content string) int {
	t.Helper()
	switch {
	case content == "":
		return 0
	case content[0] == '{':
		return 1
	}
	var rows []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(content), &rows))
	return len(rows)
}

func TestCollectorResetLosesNoRows(t *testing.T) {
	c := NewCollector()
	const writers, perWriter = 4, 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				require.NoError(t, c.Add(fmt.Sprintf(`{"w":%d,"i":%d}`, w, i)))
			}
		}(w)
	}

	done := make(chan struct{})
	drained := make(chan int)
	go func() {
		total := 0
		for {
			select {
			case <-done:
				drained <- total
				return
			default:
				total += rowCount(t, c.Reset())
			}
		}
	}()

	wg.Wait()
	close(done)
	total := <-drained
	total += rowCount(t, c.Reset())
	require.Equal(t, writers*perWriter, total)
}
