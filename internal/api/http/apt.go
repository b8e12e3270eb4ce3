package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/applet"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// APTRequest carries the arguments of every APT service call. Each
// operation reads only the fields it needs.
type APTRequest struct {
	AppletID     types.AppletID             `json:"applet_id"`
	Attributes   types.Attributes           `json:"attributes"`
	Pos          types.AppletPos            `json:"pos"`
	Parameter    *types.MessageParameter    `json:"parameter"`
	Object       types.Handle               `json:"object"`
	Buffer       []byte                     `json:"buffer"`
	Notification types.Notification         `json:"notification"`
	Sender       *types.AppletID            `json:"sender"`
	Receiver     *types.AppletID            `json:"receiver"`
	ReturnToSys  bool                       `json:"return_to_sys"`
	NotPause     bool                       `json:"not_pause"`
	Exiting      bool                       `json:"exiting"`
	JumpHome     bool                       `json:"jump_home"`
	AppExiting   bool                       `json:"app_exiting"`
	Paused       bool                       `json:"paused"`
	TitleID      uint64                     `json:"title_id"`
	MediaType    types.MediaType            `json:"media_type"`
	Flags        types.ApplicationJumpFlags `json:"flags"`
	Param        []byte                     `json:"param"`
	HMAC         []byte                     `json:"hmac"`
	DeliverArg   *types.DeliverArg          `json:"deliver_arg"`
	Probe        uint8                      `json:"probe"`
}

type aptOp func(m *applet.Manager, req *APTRequest) (gin.H, error)

var errMissingField = errors.New("missing required field")

func requireParameter(req *APTRequest) (types.MessageParameter, error) {
	if req.Parameter == nil {
		return types.MessageParameter{}, fmt.Errorf("%w: parameter", errMissingField)
	}
	return *req.Parameter, nil
}

var aptOps = map[string]aptOp{
	"get_lock_handle": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		attrs, state, lock := m.LockHandle(req.Attributes)
		return gin.H{"attributes": attrs, "state": state, "lock": lock}, nil
	},
	"initialize": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		notification, parameter, err := m.Initialize(req.AppletID, req.Attributes)
		if err != nil {
			return nil, err
		}
		return gin.H{"notification_event": notification, "parameter_event": parameter}, nil
	},
	"enable": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.Enable(req.Attributes)
	},
	"finalize": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.Finalize(req.AppletID)
	},
	"count_registered_applet": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return gin.H{"count": m.CountRegisteredApplet()}, nil
	},
	"is_registered": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return gin.H{"registered": m.IsRegistered(req.AppletID)}, nil
	},
	"get_attribute": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		attrs, err := m.Attribute(req.AppletID)
		if err != nil {
			return nil, err
		}
		return gin.H{"attributes": attrs}, nil
	},
	"inquire_notification": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		n, err := m.InquireNotification(req.AppletID)
		if err != nil {
			return nil, err
		}
		return gin.H{"notification": n, "name": n.String()}, nil
	},
	"send_notification": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.SendNotification(req.Notification)
	},
	"send_notification_to_all": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		m.SendNotificationToAll(req.Notification)
		return nil, nil
	},

	"send_parameter": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		p, err := requireParameter(req)
		if err != nil {
			return nil, err
		}
		return nil, m.SendParameter(p)
	},
	"glance_parameter": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		p, err := m.GlanceParameter(req.AppletID)
		if err != nil {
			return nil, err
		}
		return gin.H{"parameter": p}, nil
	},
	"receive_parameter": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		p, err := m.ReceiveParameter(req.AppletID)
		if err != nil {
			return nil, err
		}
		return gin.H{"parameter": p}, nil
	},
	"cancel_parameter": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		var sender, receiver types.AppletID
		if req.Sender != nil {
			sender = *req.Sender
		}
		if req.Receiver != nil {
			receiver = *req.Receiver
		}
		return gin.H{"cancelled": m.CancelParameter(req.Sender != nil, sender, req.Receiver != nil, receiver)}, nil
	},

	"prepare_to_start_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PrepareToStartLibraryApplet(req.AppletID)
	},
	"preload_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PreloadLibraryApplet(req.AppletID)
	},
	"finish_preloading_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		m.FinishPreloadingLibraryApplet(req.AppletID)
		return nil, nil
	},
	"start_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.StartLibraryApplet(req.AppletID, req.Object, req.Buffer)
	},
	"prepare_to_close_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PrepareToCloseLibraryApplet(req.NotPause, req.Exiting, req.JumpHome)
	},
	"close_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.CloseLibraryApplet(req.Object, req.Buffer)
	},
	"cancel_library_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.CancelLibraryApplet(req.AppExiting)
	},
	"send_dsp_sleep": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.SendDspSleep(req.AppletID, req.Object)
	},
	"send_dsp_wakeup": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.SendDspWakeUp(req.AppletID, req.Object)
	},

	"prepare_to_start_system_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PrepareToStartSystemApplet(req.AppletID)
	},
	"start_system_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.StartSystemApplet(req.AppletID, req.Object, req.Buffer)
	},
	"prepare_to_close_system_applet": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.PrepareToCloseSystemApplet()
	},
	"close_system_applet": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.CloseSystemApplet(req.Object, req.Buffer)
	},
	"order_to_close_system_applet": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.OrderToCloseSystemApplet()
	},

	"order_to_close_application": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.OrderToCloseApplication()
	},
	"prepare_to_close_application": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		if err := m.PrepareToCloseApplication(req.ReturnToSys); err != nil {
			return nil, err
		}
		return gin.H{"close_target": m.ApplicationCloseTarget()}, nil
	},
	"close_application": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.CloseApplication(req.Object, req.Buffer)
	},
	"prepare_to_do_application_jump": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PrepareToDoApplicationJump(req.TitleID, req.MediaType, req.Flags)
	},
	"do_application_jump": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.DoApplicationJump(types.NewDeliverArg(req.Param, req.HMAC))
	},
	"get_program_id_on_application_jump": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		current, next, err := m.ProgramIDOnApplicationJump()
		if err != nil {
			return nil, err
		}
		return gin.H{"current_title_id": current, "next_title_id": next}, nil
	},
	"get_app_jump_parameters": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		jump, found := m.AppJumpParameters()
		if !found {
			return nil, applet.ErrNotFound
		}
		return gin.H{"jump": jump}, nil
	},
	"prepare_to_start_application": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.PrepareToStartApplication(req.TitleID, req.MediaType)
	},
	"start_application": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.StartApplication(req.Param, req.HMAC, req.Paused)
	},
	"wakeup_application": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.WakeupApplication(req.Object, req.Buffer)
	},
	"cancel_application": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.CancelApplication()
	},
	"send_application_parameter": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		p, err := requireParameter(req)
		if err != nil {
			return nil, err
		}
		m.SendApplicationParameterAfterRegistration(p)
		return nil, nil
	},
	"receive_deliver_arg": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		arg, found := m.ReceiveDeliverArg()
		if !found {
			return gin.H{"deliver_arg": nil}, nil
		}
		return gin.H{"deliver_arg": arg}, nil
	},
	"set_deliver_arg": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		if req.DeliverArg == nil {
			return nil, fmt.Errorf("%w: deliver_arg", errMissingField)
		}
		m.SetDeliverArg(*req.DeliverArg)
		return nil, nil
	},

	"prepare_to_jump_to_home_menu": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.PrepareToJumpToHomeMenu()
	},
	"jump_to_home_menu": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.JumpToHomeMenu(req.Object, req.Buffer)
	},
	"prepare_to_leave_home_menu": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return nil, m.PrepareToLeaveHomeMenu()
	},
	"leave_home_menu": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.LeaveHomeMenu(req.Object, req.Buffer)
	},

	"get_applet_man_info": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return gin.H{"info": m.AppletManInfo(req.Pos)}, nil
	},
	"get_applet_info": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		info, err := m.AppletInfo(req.AppletID)
		if err != nil {
			return nil, err
		}
		return gin.H{"info": info}, nil
	},
	"check_application_media": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		media, err := m.CheckApplicationMedia(req.Probe)
		if err != nil {
			return nil, err
		}
		return gin.H{"media_type": media, "name": media.String()}, nil
	},
	"get_target_platform": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return gin.H{"platform": m.TargetPlatform()}, nil
	},
	"block_new3ds_mode": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		m.BlockNew3DSMode()
		return nil, nil
	},
	"get_application_running_mode": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return gin.H{"mode": m.ApplicationRunningMode()}, nil
	},

	"send_capture_buffer_info": func(m *applet.Manager, req *APTRequest) (gin.H, error) {
		return nil, m.SendCaptureBufferInfo(req.Buffer)
	},
	"receive_capture_buffer_info": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		return gin.H{"buffer": m.ReceiveCaptureBufferInfo()}, nil
	},
	"get_capture_info": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		info, found := m.CaptureInfo()
		if !found {
			return nil, applet.ErrNotFound
		}
		return gin.H{"buffer": info}, nil
	},
	"reload_input_devices": func(m *applet.Manager, _ *APTRequest) (gin.H, error) {
		m.ReloadInputDevices()
		return nil, nil
	},
}

// ListAPTOperations lists the service calls served under /apt.
func (h *Handlers) ListAPTOperations(c *gin.Context) {
	ops := make([]string, 0, len(aptOps))
	for name := range aptOps {
		ops = append(ops, name)
	}
	sort.Strings(ops)
	c.JSON(http.StatusOK, gin.H{"operations": ops})
}

// ExecuteAPT runs the service call named by :op against the bound session.
func (h *Handlers) ExecuteAPT(c *gin.Context) {
	name := c.Param("op")
	op, found := aptOps[name]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown operation " + name})
		return
	}

	var req APTRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	s := currentSession(c)
	done := h.metrics.TrackAPTOperation(name)
	var result gin.H
	err := s.Do(func(m *applet.Manager) error {
		var err error
		result, err = op(m, &req)
		return err
	})
	done(err)

	if err != nil {
		if errors.Is(err, errMissingField) {
			badRequest(c, err)
			return
		}
		h.log.Debug("apt call failed",
			zap.String("session_id", s.ID().String()),
			zap.String("op", name),
			zap.Error(err))
		respondError(c, err)
		return
	}
	if result == nil {
		result = gin.H{}
	}
	result["success"] = true
	c.JSON(http.StatusOK, result)
}
