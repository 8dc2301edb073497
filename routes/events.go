package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"workouttribe/middlewares"
	"workouttribe/models"
)

type personRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// eventView is an event with its creator and roster resolved to names.
// Its Creator and Participants shadow the id fields of the embedded Event.
type eventView struct {
	models.Event
	Creator      personRef   `json:"creator"`
	Participants []personRef `json:"participants"`
}

// views resolves every referenced user in one directory lookup. Users that
// no longer exist keep an empty name.
func (d *deps) views(ctx context.Context, list ...models.Event) ([]eventView, error) {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, e := range list {
		add(e.CreatorID)
		for _, p := range e.Participants {
			add(p)
		}
	}
	names, err := d.Users.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]eventView, 0, len(list))
	for _, e := range list {
		v := eventView{
			Event:        e,
			Creator:      personRef{ID: e.CreatorID, Name: names[e.CreatorID]},
			Participants: make([]personRef, 0, len(e.Participants)),
		}
		for _, p := range e.Participants {
			v.Participants = append(v.Participants, personRef{ID: p, Name: names[p]})
		}
		out = append(out, v)
	}
	return out, nil
}

// GET /events
func (d *deps) getEvents(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := d.Events.List(ctx)
	if err != nil {
		d.fail(c, err, "Could not fetch events. Try again later.")
		return
	}
	out, err := d.views(ctx, list...)
	if err != nil {
		d.fail(c, err, "Could not fetch events. Try again later.")
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /events/:id
func (d *deps) getEvent(c *gin.Context) {
	ctx := c.Request.Context()
	e, err := d.Events.Get(ctx, c.Param("id"))
	if err != nil {
		d.fail(c, err, "Could not fetch event. Try again later.")
		return
	}
	out, err := d.views(ctx, e)
	if err != nil {
		d.fail(c, err, "Could not fetch event. Try again later.")
		return
	}
	c.JSON(http.StatusOK, out[0])
}

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	var in models.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	e, err := d.Events.Create(c.Request.Context(), middlewares.UserID(c), in)
	if err != nil {
		d.fail(c, err, "Could not create event. Try again later.")
		return
	}
	d.purge(c, e.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "event created!", "event": e})
}

// PUT /events/:id
func (d *deps) updateEvent(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}
	id := c.Param("id")
	e, err := d.Events.Update(c.Request.Context(), id, middlewares.UserID(c), patch)
	if err != nil {
		d.fail(c, err, "Could not update event. Try again later.")
		return
	}
	d.purge(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully!", "event": e})
}

// DELETE /events/:id
func (d *deps) deleteEvent(c *gin.Context) {
	id := c.Param("id")
	if err := d.Events.Delete(c.Request.Context(), id, middlewares.UserID(c)); err != nil {
		d.fail(c, err, "Could not delete the event.")
		return
	}
	d.purge(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully!"})
}

// POST /events/:id/join
func (d *deps) joinEvent(c *gin.Context) {
	id := c.Param("id")
	e, err := d.Events.Join(c.Request.Context(), id, middlewares.UserID(c))
	if err != nil {
		d.fail(c, err, "Could not join event.")
		return
	}
	d.purge(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "Joined!", "event": e})
}

// POST /events/:id/leave
func (d *deps) leaveEvent(c *gin.Context) {
	id := c.Param("id")
	e, err := d.Events.Leave(c.Request.Context(), id, middlewares.UserID(c))
	if err != nil {
		d.fail(c, err, "Could not leave event.")
		return
	}
	d.purge(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "Left the event.", "event": e})
}

// purge drops cached reads of id after a committed write. A failure only
// leaves entries to expire on their own.
func (d *deps) purge(c *gin.Context, id string) {
	if d.Invalidator == nil {
		return
	}
	if err := d.Invalidator.PurgeEvent(c.Request.Context(), id); err != nil {
		d.Log.Warn().Err(err).Str("event", id).Msg("cache invalidation failed")
	}
}
