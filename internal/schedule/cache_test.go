package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raspbot/internal/model"
)

func TestCacheStartsEmpty(t *testing.T) {
	c := NewCache()

	_, _, ok := c.Substitutions()
	assert.False(t, ok)
	_, _, ok = c.Reference()
	assert.False(t, ok)
	_, ok = c.Variant()
	assert.False(t, ok)
	assert.True(t, c.LastUpdate().IsZero())
}

func TestCacheFieldsAreIndependent(t *testing.T) {
	c := NewCache()
	t1 := time.Date(2025, 2, 5, 7, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)

	c.SetSubstitutions(map[int]model.SiteSubstitution{2: {Pair: 2, Subject: "Физика"}}, t1)
	c.SetReference(time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), model.Wednesday, t2)

	subs, at, ok := c.Substitutions()
	require.True(t, ok)
	assert.Equal(t, t1, at)
	assert.Len(t, subs, 1)

	// Setting the reference did not touch the substitution field.
	_, _, refOK := c.Reference()
	assert.True(t, refOK)
	assert.Equal(t, t2, c.LastUpdate())
}

func TestCacheSubstitutionsReplacedWholesale(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.SetSubstitutions(map[int]model.SiteSubstitution{2: {Pair: 2}, 3: {Pair: 3}}, now)
	c.SetSubstitutions(map[int]model.SiteSubstitution{5: {Pair: 5}}, now.Add(time.Minute))

	subs, _, ok := c.Substitutions()
	require.True(t, ok)
	assert.Len(t, subs, 1)
	_, has5 := subs[5]
	assert.True(t, has5)
}

func TestCacheReturnsCopies(t *testing.T) {
	c := NewCache()
	c.SetSubstitutions(map[int]model.SiteSubstitution{2: {Pair: 2, Subject: "Физика"}}, time.Now())

	got, _, _ := c.Substitutions()
	got[9] = model.SiteSubstitution{Pair: 9}

	again, _, _ := c.Substitutions()
	assert.Len(t, again, 1)
}

func TestCacheSetCopiesInput(t *testing.T) {
	c := NewCache()
	in := map[int]model.SiteSubstitution{2: {Pair: 2}}
	c.SetSubstitutions(in, time.Now())
	in[7] = model.SiteSubstitution{Pair: 7}

	got, _, _ := c.Substitutions()
	assert.Len(t, got, 1)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.SetSubstitutions(map[int]model.SiteSubstitution{n: {Pair: n}}, time.Now())
			c.SetVariant(model.VariantA, time.Now())
		}(i + 1)
		go func() {
			defer wg.Done()
			c.Substitutions()
			c.Reference()
			c.Variant()
			c.LastUpdate()
		}()
	}
	wg.Wait()

	subs, _, ok := c.Substitutions()
	require.True(t, ok)
	assert.Len(t, subs, 1)
}
