package controllers

import (
	"net/http"
	"time"

	"license-portal/web/db"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status reports host load and store reachability for the admin
// dashboard.
func Status(c *gin.Context) {
	dbOK := true
	if sqlDB, err := db.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbOK = false
	}

	var cpuPercent float64
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memPercent float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success": dbOK,
		"data": gin.H{
			"db":          dbOK,
			"cpu_percent": cpuPercent,
			"mem_percent": memPercent,
		},
	})
}
