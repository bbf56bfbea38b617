package api

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusCreated, gin.H{"data": user})
	}
}

func ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := models.GetAllUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		for _, user := range users {
			user.PrepareGive()
		}
		c.JSON(http.StatusOK, gin.H{"data": users})
	}
}

func GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		user, err := models.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.User
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		user, err := input.UpdateUser(id)
		if err != nil {
			respondError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var user models.User
		deleted, err := user.DeleteUser(id)
		if err != nil {
			respondError(c, err)
			return
		}
		deleted.PrepareGive()
		c.JSON(http.StatusOK, gin.H{"data": deleted})
	}
}

func CreateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRole
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		role, err := models.CreateRole(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": role})
	}
}

func ListRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := models.GetRoles(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roles})
	}
}

func GetRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		role, err := models.GetRole(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": role})
	}
}

func UpdateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewRole
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		role, err := models.UpdateRole(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": role})
	}
}

func DeleteRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		role, err := models.DeleteRole(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": role})
	}
}

func CreateModuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewModule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		module, err := models.CreateModule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": module})
	}
}

func ListModulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		modules, err := models.GetModules(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": modules})
	}
}

func UpdateModuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewModule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		module, err := models.UpdateModule(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": module})
	}
}

func DeleteModuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		module, err := models.DeleteModule(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": module})
	}
}

func SaveRoleModuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRoleModule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		roleModule, err := models.SaveRoleModule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roleModule})
	}
}

func DeleteRoleModuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRoleModule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		roleModule, err := models.DeleteRoleModule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roleModule})
	}
}

func ListRoleModulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var roleId *int
		if value := intQuery(c, "role_id"); value > 0 {
			roleId = &value
		}
		roleModules, err := models.GetRoleModules(c.Request.Context(), roleId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roleModules})
	}
}
