package service

import (
	"errors"
	"testing"

	"github.com/ERPlora/module-discounts/internal/config"
	"github.com/ERPlora/module-discounts/internal/constants"
)

func imageCaptchaConfig() config.CaptchaConfig {
	return config.CaptchaConfig{
		Provider: constants.CaptchaProviderImage,
		Scenes: config.CaptchaSceneConfig{
			Login:          true,
			CouponValidate: false,
		},
		Image: config.CaptchaImageConfig{
			Length: 4,
			Width:  240,
			Height: 80,
		},
	}
}

func TestCaptchaSceneEnabled(t *testing.T) {
	svc := NewCaptchaService(imageCaptchaConfig())

	if !svc.SceneEnabled(constants.CaptchaSceneLogin) {
		t.Fatalf("login scene should be enabled")
	}
	if svc.SceneEnabled(constants.CaptchaSceneCouponValidate) {
		t.Fatalf("coupon_validate scene should be disabled")
	}
	if svc.SceneEnabled("unknown") {
		t.Fatalf("unknown scene should be disabled")
	}

	disabled := NewCaptchaService(config.CaptchaConfig{Provider: constants.CaptchaProviderNone})
	if disabled.SceneEnabled(constants.CaptchaSceneLogin) {
		t.Fatalf("provider none should disable all scenes")
	}
}

func TestCaptchaVerifySkipsDisabledScene(t *testing.T) {
	svc := NewCaptchaService(imageCaptchaConfig())

	if err := svc.Verify(constants.CaptchaSceneCouponValidate, CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled scene should skip verification, got %v", err)
	}
}

func TestCaptchaVerifyRequiresPayload(t *testing.T) {
	svc := NewCaptchaService(imageCaptchaConfig())

	if err := svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected ErrCaptchaRequired, got %v", err)
	}
	if err := svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{CaptchaID: "id"}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected ErrCaptchaRequired without code, got %v", err)
	}
}

func TestCaptchaVerifyRejectsWrongCode(t *testing.T) {
	svc := NewCaptchaService(imageCaptchaConfig())

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("unexpected empty challenge: %+v", challenge)
	}

	err = svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{
		CaptchaID:   challenge.CaptchaID,
		CaptchaCode: "definitely-wrong",
	})
	if !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("expected ErrCaptchaInvalid, got %v", err)
	}
}

func TestCaptchaGenerateUnsupportedProvider(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Provider: constants.CaptchaProviderNone})

	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaUnsupported) {
		t.Fatalf("expected ErrCaptchaUnsupported, got %v", err)
	}
}
