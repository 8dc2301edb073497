package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"workouttribe/directory"
	"workouttribe/middlewares"
)

const defaultNearbyKm = 10

// POST /signup
func (d *deps) signup(c *gin.Context) {
	var req directory.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	u, err := d.Users.Register(c.Request.Context(), req)
	if err != nil {
		d.fail(c, err, "Could not save user.")
		return
	}
	token, err := d.Guard.Issue(u.ID)
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created successfully", "user": u, "token": token})
}

// POST /login
func (d *deps) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	u, err := d.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}
	token, err := d.Guard.Issue(u.ID)
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "user": u, "token": token})
}

// GET /users/profile
func (d *deps) getProfile(c *gin.Context) {
	u, err := d.Users.Get(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		d.fail(c, err, "Could not fetch profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// PUT /users/profile
func (d *deps) updateProfile(c *gin.Context) {
	var patch directory.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}
	u, err := d.Users.UpdateProfile(c.Request.Context(), middlewares.UserID(c), patch)
	if err != nil {
		d.fail(c, err, "Could not update profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully!", "user": u})
}

// GET /users/nearby?distance=<km>&activities=running,yoga
func (d *deps) nearby(c *gin.Context) {
	km := float64(defaultNearbyKm)
	if raw := c.Query("distance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "distance must be a number of kilometers."})
			return
		}
		km = v
	}
	var filter []string
	if raw := c.Query("activities"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			filter = append(filter, strings.TrimSpace(a))
		}
	}

	matches, err := d.Matcher.FindNearby(c.Request.Context(), middlewares.UserID(c), km*1000, filter)
	if err != nil {
		d.fail(c, err, "Could not search nearby users.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(matches), "users": matches})
}
