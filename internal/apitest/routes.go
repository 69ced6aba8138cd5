package apitest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/jwt"
)

const ctxClaims = "claims"

func (a *API) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.countCalls())

	auth := r.Group("/auth")
	auth.POST("/login", a.login)
	auth.POST("/register", a.register)
	auth.GET("/me", a.requireAuth(), a.me)

	p := r.Group("/purchases", a.requireAuth())
	p.GET("", a.listPurchases)
	p.POST("", a.createPurchase)
	p.GET("/:id", a.getPurchase)
	p.PUT("/:id", a.updatePurchase)
	p.DELETE("/:id", a.deletePurchase)

	u := r.Group("/users", a.requireAuth(), a.requireAdmin())
	u.GET("", a.listUsers)
	u.PATCH("/:id/role", a.updateRole)
	u.DELETE("/:id", a.deleteUser)

	r.GET("/reports/daily", a.requireAuth(), a.daily)
	return r
}

func (a *API) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		a.mu.Lock()
		a.calls[c.Request.Method+" "+route]++
		a.mu.Unlock()
	}
}

func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		a.mu.Lock()
		revoked := a.revoked[parts[1]]
		a.mu.Unlock()
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		claims, err := a.opts.Tokens.Parse(parts[1])
		if err != nil {
			a.logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func (a *API) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := a.currentUser(c)
		if u == nil || u.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin only"})
			return
		}
		c.Next()
	}
}

func (a *API) currentUser(c *gin.Context) *User {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims := v.(*jwt.Claims)
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.users[claims.Subject]
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (a *API) userJSON(u *User) gin.H {
	var id any = u.ID
	if a.opts.NumericIDs {
		n, _ := strconv.Atoi(u.ID)
		id = n
	}
	return gin.H{
		a.opts.IDField: id,
		"username":     u.Username,
		"email":        u.Email,
		"role":         u.Role,
	}
}

func (a *API) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	var found *User
	a.mu.Lock()
	for _, u := range a.users {
		if u.Username == req.Username && u.Password == req.Password {
			cp := *u
			found = &cp
			break
		}
	}
	a.mu.Unlock()
	if found == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": a.userJSON(found), "token": a.Token(found.ID)})
}

func (a *API) register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	a.mu.Lock()
	for _, u := range a.users {
		if u.Username == req.Username {
			a.mu.Unlock()
			c.JSON(http.StatusConflict, gin.H{"message": "username taken"})
			return
		}
	}
	u := a.addUserLocked(req.Username, req.Email, req.Password, "user")
	cp := *u
	a.mu.Unlock()

	resp := gin.H{"message": "registered"}
	if a.opts.RegisterLogsIn {
		resp["user"] = a.userJSON(&cp)
		resp["token"] = a.Token(cp.ID)
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *API) me(c *gin.Context) {
	a.mu.Lock()
	gate, status := a.meGate, a.meStatus
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-c.Request.Context().Done():
			return
		}
	}
	if status != 0 {
		c.JSON(status, gin.H{"message": "profile unavailable"})
		return
	}

	u := a.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return
	}
	if a.opts.MeShape == MeBare {
		c.JSON(http.StatusOK, a.userJSON(u))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a.userJSON(u)})
}

func (a *API) listPurchases(c *gin.Context) {
	u := a.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return
	}
	from, to, category := c.Query("from"), c.Query("to"), c.Query("category")

	a.mu.Lock()
	all := a.purchasesLocked(u.ID)
	a.mu.Unlock()

	out := make([]Purchase, 0, len(all))
	for _, p := range all {
		if from != "" && p.Date < from {
			continue
		}
		if to != "" && p.Date > to {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}

	switch a.opts.ListShape {
	case ListData:
		c.JSON(http.StatusOK, gin.H{"data": out})
	case ListPurchases:
		c.JSON(http.StatusOK, gin.H{"purchases": out, "total": len(out)})
	default:
		c.JSON(http.StatusOK, out)
	}
}

// ownedPurchase returns the purchase named by :id if it belongs to the caller.
func (a *API) ownedPurchase(c *gin.Context) (*Purchase, bool) {
	u := a.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return nil, false
	}
	a.mu.Lock()
	p := a.purchases[c.Param("id")]
	a.mu.Unlock()
	if p == nil || p.UserID != u.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "purchase not found"})
		return nil, false
	}
	return p, true
}

func (a *API) getPurchase(c *gin.Context) {
	p, ok := a.ownedPurchase(c)
	if !ok {
		return
	}
	a.mu.Lock()
	cp := *p
	a.mu.Unlock()
	c.JSON(http.StatusOK, cp)
}

func bindPurchase(c *gin.Context) (Purchase, bool) {
	var in Purchase
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return Purchase{}, false
	}
	if in.Item == "" || in.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "item and a positive amount are required"})
		return Purchase{}, false
	}
	if _, err := time.Parse(time.DateOnly, in.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return Purchase{}, false
	}
	return in, true
}

func (a *API) createPurchase(c *gin.Context) {
	u := a.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return
	}
	in, ok := bindPurchase(c)
	if !ok {
		return
	}
	id := a.AddPurchase(u.ID, in.Item, in.Amount, in.Category, in.Date)
	a.mu.Lock()
	cp := *a.purchases[id]
	a.mu.Unlock()
	c.JSON(http.StatusCreated, cp)
}

func (a *API) updatePurchase(c *gin.Context) {
	p, ok := a.ownedPurchase(c)
	if !ok {
		return
	}
	in, ok := bindPurchase(c)
	if !ok {
		return
	}
	a.mu.Lock()
	p.Item, p.Amount, p.Category, p.Date = in.Item, in.Amount, in.Category, in.Date
	cp := *p
	a.mu.Unlock()
	c.JSON(http.StatusOK, cp)
}

func (a *API) deletePurchase(c *gin.Context) {
	p, ok := a.ownedPurchase(c)
	if !ok {
		return
	}
	a.mu.Lock()
	delete(a.purchases, p.ID)
	a.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (a *API) listUsers(c *gin.Context) {
	users := a.Users()
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, a.userJSON(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) updateRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role != "user" && req.Role != "admin") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "role must be user or admin"})
		return
	}
	a.mu.Lock()
	u := a.users[c.Param("id")]
	if u != nil {
		u.Role = req.Role
	}
	var cp User
	if u != nil {
		cp = *u
	}
	a.mu.Unlock()
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, a.userJSON(&cp))
}

func (a *API) deleteUser(c *gin.Context) {
	id := c.Param("id")
	a.mu.Lock()
	_, ok := a.users[id]
	delete(a.users, id)
	for pid, p := range a.purchases {
		if p.UserID == id {
			delete(a.purchases, pid)
		}
	}
	a.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) daily(c *gin.Context) {
	u := a.currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "days must be a positive integer"})
		return
	}

	a.mu.Lock()
	shape := a.opts.DailyShape
	all := a.purchasesLocked(u.ID)
	a.mu.Unlock()

	if shape == DailyMissing {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such report"})
		return
	}

	today := a.opts.Now().UTC()
	dates := make([]string, days)
	totals := make(map[string]float64, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i-days+1).Format(time.DateOnly)
		dates[i] = d
		totals[d] = 0
	}
	for _, p := range all {
		if _, ok := totals[p.Date]; ok {
			totals[p.Date] += p.Amount
		}
	}

	switch shape {
	case DailyEnvelope:
		series := make([]gin.H, 0, days)
		for _, d := range dates {
			series = append(series, gin.H{"date": d, "total": totals[d]})
		}
		c.JSON(http.StatusOK, gin.H{"daily": series})
	case DailyDateMap:
		c.JSON(http.StatusOK, gin.H{"data": totals})
	case DailyLabels:
		values := make([]float64, days)
		for i, d := range dates {
			values[i] = totals[d]
		}
		c.JSON(http.StatusOK, gin.H{"labels": dates, "values": values})
	case DailyUnknown:
		c.JSON(http.StatusOK, gin.H{"chart": gin.H{"x": dates}})
	default:
		series := make([]gin.H, 0, days)
		for _, d := range dates {
			series = append(series, gin.H{"date": d, "total": totals[d]})
		}
		c.JSON(http.StatusOK, series)
	}
}
